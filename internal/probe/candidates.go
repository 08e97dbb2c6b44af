package probe

// DefaultCandidatePaths are catalog pages tried in order when the home page shows no
// product. The list covers the slugs storefront themes commonly use.
var DefaultCandidatePaths = []string{
	"/shop/", "/product-category/", "/category/", "/products/",
	"/store/", "/collections/", "/items/", "/catalog/",
	"/products-page/", "/product/", "/our-products/", "/shop-all/",
	"/shop-by-category/", "/all-products/", "/product-list/", "/sale/",
	"/new-arrivals/", "/top-rated/", "/best-sellers/", "/featured/",
	"/brands/", "/vendors/", "/promotions/", "/deals/",
	"/discounts/", "/offers/", "/collections/all/", "/our-range/",
	"/exclusive/", "/seasonal/", "/limited-edition/", "/special-edition/",
	"/catalogue/", "/shop-now/", "/shop-by-brand/", "/shop-by-type/",
	"/shop-by-price/", "/clearance/", "/outlet/", "/promo-items/",
}
