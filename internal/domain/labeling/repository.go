package labeling

import (
	"context"
)

// LabelFilter narrows label listings. Zero values mean "no constraint".
type LabelFilter struct {
	Barcode    string
	ItemCode   string
	Customer   string
	SalesOrder string
	Statuses   []LabelStatus
	Limit      int
	Offset     int
}

// LabelRepository defines the interface for sequencing label persistence
type LabelRepository interface {
	// FindByName finds a label by its system name
	FindByName(ctx context.Context, name string) (*SequencingLabel, error)

	// FindByKey returns every record matching barcode and item code exactly.
	// More than one result is an integrity fault for the caller to surface.
	FindByKey(ctx context.Context, key LabelKey) ([]SequencingLabel, error)

	// FindByKeys returns every record matching any of the keys in one query
	FindByKeys(ctx context.Context, keys []LabelKey) ([]SequencingLabel, error)

	// FindByBarcode returns every record with the barcode, regardless of item code
	FindByBarcode(ctx context.Context, barcode string) ([]SequencingLabel, error)

	// FindDuplicatedBarcodes returns barcodes carried by more than one label record
	FindDuplicatedBarcodes(ctx context.Context, limit int) ([]string, error)

	// List returns labels matching the filter ordered by name
	List(ctx context.Context, filter LabelFilter) ([]SequencingLabel, error)

	// Save creates or updates a label
	Save(ctx context.Context, label *SequencingLabel) error

	// UpdateStatus writes the status column of one label
	UpdateStatus(ctx context.Context, name string, status LabelStatus) error

	// Delete permanently removes a label record
	Delete(ctx context.Context, name string) error
}

// SampleRepository defines read access to samples and their sample links
type SampleRepository interface {
	// FindByName finds a sample by name
	FindByName(ctx context.Context, name string) (*Sample, error)

	// FindLabelStatesForOrder returns one row per sample linked to the sales order,
	// with the status of its label, in a single query.
	FindLabelStatesForOrder(ctx context.Context, salesOrder string) ([]SampleLabelState, error)

	// FindLabelStatesForSamples returns one row per named sample with its label
	FindLabelStatesForSamples(ctx context.Context, samples []string) ([]SampleLabelState, error)

	// FindOpenOrderUsages lists sales orders with docstatus <= 1, other than
	// excludeOrder, that reference the label through a linked sample.
	FindOpenOrderUsages(ctx context.Context, labelName, excludeOrder string) ([]OrderUsage, error)

	// FindUsagesByBarcode lists every sample (any order, any time) whose label
	// carries the barcode.
	FindUsagesByBarcode(ctx context.Context, barcode string) ([]SampleUsage, error)
}
