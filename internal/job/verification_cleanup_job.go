package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/pkg/timeutil"
	"github.com/xxxsen/docqa/internal/repo"
)

// VerificationCleanupJob sweeps expired and consumed one-time codes so
// the table stays small and LatestByEmail stays cheap.
type VerificationCleanupJob struct {
	repo *repo.EmailVerificationRepo
}

func NewVerificationCleanupJob(repo *repo.EmailVerificationRepo) *VerificationCleanupJob {
	return &VerificationCleanupJob{repo: repo}
}

func (j *VerificationCleanupJob) Name() string {
	return "verification_cleanup"
}

func (j *VerificationCleanupJob) Run(ctx context.Context) error {
	if j.repo == nil {
		return nil
	}
	removed, err := j.repo.DeleteExpired(ctx, timeutil.NowUnix())
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("expired verification codes removed", zap.Int64("count", removed))
	}
	return nil
}
