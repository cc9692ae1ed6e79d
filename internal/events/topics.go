package events

// Topics emitted by the checkout session.
const (
	// TopicProductScanned fires when a barcode decode reaches the session.
	TopicProductScanned = "pos.product.scanned"
	// TopicCartItemAdded fires when a resolved product is merged into the cart.
	TopicCartItemAdded = "pos.cart.item_added"
	// TopicPurchaseCompleted fires after the catalog service accepts a purchase.
	TopicPurchaseCompleted = "pos.purchase.completed"
)
