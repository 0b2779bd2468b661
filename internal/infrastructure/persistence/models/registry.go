package models

// All returns one zero value of every persisted model, in dependency order.
// SQL migrations own the production schema; AutoMigrate over this list is
// used for sqlite databases in tests and local runs.
func All() []any {
	return []any{
		&CustomerModel{},
		&SequencingLabelModel{},
		&SampleModel{},
		&SampleLinkModel{},
		&SalesOrderModel{},
		&SalesOrderItemModel{},
		&DeliveryNoteModel{},
		&DeliveryNoteItemModel{},
		&NamingSeriesModel{},
		&ErrorLogModel{},
	}
}
