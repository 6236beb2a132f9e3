package remote

import (
	"context"

	"sprinkler_client/internal/logger"
	"sprinkler_client/internal/models"
)

// DryRunCommander accepts every override command without contacting the
// controller. Reads still go through the real Client.
type DryRunCommander struct {
	log *logger.Logger
}

func NewDryRunCommander(log *logger.Logger) *DryRunCommander {
	if log == nil {
		log = logger.Nop()
	}
	return &DryRunCommander{log: log}
}

func (d *DryRunCommander) StartOverride(_ context.Context, id models.ZoneID, minutes int) error {
	d.log.Infow("dry_run_command", "msg", newCommand(id, true, minutes))
	return nil
}

func (d *DryRunCommander) StopOverride(_ context.Context, id models.ZoneID) error {
	d.log.Infow("dry_run_command", "msg", newCommand(id, false, 0))
	return nil
}
