// Package ports defines interfaces for infrastructure dependencies.
// These are the "ports" in hexagonal architecture - abstractions that
// the application layer depends on but doesn't implement.
package ports

import (
	"context"

	"github.com/permgate-dev/permgate/internal/application/dto"
	"github.com/permgate-dev/permgate/internal/domain/capabilities"
)

// ManifestSource resolves installed applications by package name.
type ManifestSource interface {
	// ApplicationByPackage returns the declared manifest of one package.
	ApplicationByPackage(ctx context.Context, pkg string) (capabilities.Application, error)

	// Applications returns every known manifest.
	Applications(ctx context.Context) ([]capabilities.Application, error)
}

// Prompter confirms grant decisions with the user before they apply.
type Prompter interface {
	// Confirm asks the user a yes/no question and returns the answer.
	Confirm(ctx context.Context, title, description string) (bool, error)
}

// UsageRecorder ingests capability access events into the usage history.
type UsageRecorder interface {
	Record(ctx context.Context, pkg string, uid int, group string, event capabilities.AccessEvent) error
}

// Formatter renders group reports to an output stream.
type Formatter interface {
	// Format writes a single group report.
	Format(report *dto.GroupReport) error

	// FormatList writes a set of group reports.
	FormatList(reports []*dto.GroupReport) error
}
