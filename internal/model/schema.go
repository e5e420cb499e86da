package model

// Tables lists every persisted model in migration order.
func Tables() []interface{} {
	return []interface{}{
		&University{},
		&Application{},
		&Payment{},
		&Refund{},
		&DocumentType{},
		&Document{},
		&Ticket{},
		&WebhookEvent{},
	}
}
