package events

// Topic constants for domain events emitted by the order service.
const (
	TopicOrderCreated       = "order.created"
	TopicOrderItemsReplaced = "order.items_replaced"
	TopicOrderStatusChanged = "order.status_changed"
	TopicOrderReconciled    = "order.reconciled"
	TopicOrderDeleted       = "order.deleted"
)

// DefaultTopics returns every topic the service emits.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderItemsReplaced,
		TopicOrderStatusChanged,
		TopicOrderReconciled,
		TopicOrderDeleted,
	}
}
