package shop

const (
	TopicSessionChanged = "storefront.session.changed"
	TopicOrderPlaced    = "storefront.order.placed"
)

// Session events are keyed by user so one user's changes stay ordered;
// order events by order id.
func UserKey(userID string) []byte   { return []byte(userID) }
func OrderKey(orderID string) []byte { return []byte(orderID) }
