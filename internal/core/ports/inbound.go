package ports

import (
	"context"

	"github.com/shaneholloman/edgar/internal/core/domain"
)

// FilingDownloader is the inbound contract for the download stage.
type FilingDownloader interface {
	Run(ctx context.Context, ciks []string) (domain.StageCounts, error)
}

// FilingProcessor is the inbound contract for the extraction stage.
type FilingProcessor interface {
	Run(ctx context.Context) (domain.StageCounts, error)
}
