package erp

import (
	"context"
	"fmt"

	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/infrastructure/config"
)

// ConfigNamingSeries resolves document naming series from configuration
type ConfigNamingSeries struct {
	cfg config.NamingSeriesConfig
}

// NewConfigNamingSeries creates a ConfigNamingSeries
func NewConfigNamingSeries(cfg config.NamingSeriesConfig) *ConfigNamingSeries {
	return &ConfigNamingSeries{cfg: cfg}
}

// NamingSeries returns the company's series, or the default one.
// Only delivery notes are numbered here.
func (n *ConfigNamingSeries) NamingSeries(_ context.Context, doctype, company string) (string, error) {
	if doctype != "Delivery Note" {
		return "", shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("no naming series for doctype %q", doctype))
	}
	series := n.cfg.SeriesFor(company)
	if series == "" {
		return "", shared.NewDomainError(shared.CodePreconditionFailed,
			fmt.Sprintf("no naming series configured for company %q", company))
	}
	return series, nil
}
