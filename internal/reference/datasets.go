// Package reference holds the static catalog shown before any backend call:
// sample datasets, pricing tiers and the public API endpoint reference.
package reference

import "github.com/dataflow/console/internal/core/domain"

var datasets = []domain.Dataset{
	{
		ID:          "1",
		Name:        "Amazon Best Sellers - Electronics",
		Platform:    domain.PlatformAmazon,
		Category:    "Electronics",
		Description: "Comprehensive dataset of top-selling electronics on Amazon, including product details, pricing, ratings, and reviews.",
		RecordCount: 15420,
		LastUpdated: "2024-01-15",
		Size:        "2.3 GB",
		IsPremium:   false,
		Tags:        []string{"electronics", "bestsellers", "reviews", "pricing"},
		Preview: domain.PreviewTable{
			Columns: []string{"product_name", "price", "rating", "reviews", "category"},
			Rows: [][]any{
				{"Wireless Earbuds Pro", "$89.99", "4.5", 12543, "Audio"},
				{"Smart Watch Ultra", "$299.99", "4.7", 8921, "Wearables"},
				{"4K Webcam HD", "$129.99", "4.3", 5632, "Computer Accessories"},
			},
		},
	},
	{
		ID:          "2",
		Name:        "Shopify Store Analytics",
		Platform:    domain.PlatformShopify,
		Category:    "E-commerce",
		Description: "Detailed analytics from thousands of Shopify stores including traffic data, conversion rates, and product performance metrics.",
		RecordCount: 8750,
		LastUpdated: "2024-01-14",
		Size:        "1.8 GB",
		IsPremium:   true,
		Tags:        []string{"analytics", "conversion", "traffic", "performance"},
		Preview: domain.PreviewTable{
			Columns: []string{"store_name", "monthly_visitors", "conversion_rate", "avg_order_value", "top_product"},
			Rows: [][]any{
				{"Fashion Hub Store", 45230, "3.2%", "$67.50", "Summer Dress"},
				{"Tech Gadgets Plus", 89120, "2.8%", "$124.30", "Phone Case"},
				{"Home Decor Central", 23450, "4.1%", "$89.20", "Wall Art"},
			},
		},
	},
	{
		ID:          "3",
		Name:        "eBay Auction Data - Collectibles",
		Platform:    domain.PlatformEbay,
		Category:    "Collectibles",
		Description: "Historical auction data for collectible items, including bid patterns, final prices, and seller information.",
		RecordCount: 23100,
		LastUpdated: "2024-01-13",
		Size:        "3.1 GB",
		IsPremium:   false,
		Tags:        []string{"auctions", "collectibles", "pricing", "historical"},
		Preview: domain.PreviewTable{
			Columns: []string{"item_name", "starting_bid", "final_price", "bids", "seller_rating"},
			Rows: [][]any{
				{"Vintage Baseball Card", "$50.00", "$347.00", 23, "99.8%"},
				{"Rare Comic Book Issue", "$100.00", "$892.00", 41, "100%"},
				{"Antique Watch", "$200.00", "$1250.00", 18, "98.5%"},
			},
		},
	},
	{
		ID:          "4",
		Name:        "Walmart Product Catalog",
		Platform:    domain.PlatformWalmart,
		Category:    "General Merchandise",
		Description: "Complete product catalog with SKUs, descriptions, pricing, inventory levels, and customer ratings.",
		RecordCount: 42300,
		LastUpdated: "2024-01-15",
		Size:        "5.2 GB",
		IsPremium:   true,
		Tags:        []string{"catalog", "inventory", "pricing", "ratings"},
		Preview: domain.PreviewTable{
			Columns: []string{"sku", "product", "price", "stock", "rating"},
			Rows: [][]any{
				{"WM-8472934", "Organic Coffee Beans 2lb", "$18.99", "In Stock", "4.6"},
				{"WM-2938471", "LED Desk Lamp", "$34.99", "Low Stock", "4.4"},
				{"WM-7461823", "Yoga Mat Premium", "$29.99", "In Stock", "4.8"},
			},
		},
	},
	{
		ID:          "5",
		Name:        "Etsy Handmade Trends",
		Platform:    domain.PlatformEtsy,
		Category:    "Handmade",
		Description: "Trending handmade products with seller insights, pricing strategies, and seasonal demand patterns.",
		RecordCount: 12890,
		LastUpdated: "2024-01-12",
		Size:        "1.5 GB",
		IsPremium:   false,
		Tags:        []string{"handmade", "trends", "seasonal", "sellers"},
		Preview: domain.PreviewTable{
			Columns: []string{"product", "price", "sales_30d", "trend", "seller_location"},
			Rows: [][]any{
				{"Personalized Name Necklace", "$45.00", 342, "Rising", "USA"},
				{"Handwoven Basket", "$68.00", 156, "Stable", "Morocco"},
				{"Custom Pet Portrait", "$125.00", 89, "Rising", "UK"},
			},
		},
	},
	{
		ID:          "6",
		Name:        "Amazon Fashion & Apparel",
		Platform:    domain.PlatformAmazon,
		Category:    "Fashion",
		Description: "Fashion and apparel data including size charts, color variants, seasonal trends, and customer fit feedback.",
		RecordCount: 28640,
		LastUpdated: "2024-01-14",
		Size:        "3.8 GB",
		IsPremium:   true,
		Tags:        []string{"fashion", "apparel", "trends", "sizing"},
		Preview: domain.PreviewTable{
			Columns: []string{"item", "colors", "sizes", "price_range", "avg_rating"},
			Rows: [][]any{
				{"Cotton T-Shirt Basic", 12, "8 (XS-XXL)", "$12.99-$19.99", "4.2"},
				{"Denim Jeans Slim Fit", 5, "15 (26-40)", "$39.99-$59.99", "4.5"},
				{"Running Sneakers", 8, "20 (5-14)", "$79.99-$129.99", "4.7"},
			},
		},
	},
}

// Datasets returns a copy of the sample catalog in display order.
func Datasets() []domain.Dataset {
	out := make([]domain.Dataset, len(datasets))
	for i, d := range datasets {
		out[i] = d.Clone()
	}
	return out
}

// Dataset looks up a sample dataset by id.
func Dataset(id string) (domain.Dataset, bool) {
	for _, d := range datasets {
		if d.ID == id {
			return d.Clone(), true
		}
	}
	return domain.Dataset{}, false
}
