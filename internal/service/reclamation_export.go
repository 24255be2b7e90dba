package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/servicemarket/missions/internal/auth"
	"github.com/servicemarket/missions/internal/store"
	"github.com/xuri/excelize/v2"
)

const reclamationSheet = "Reclamations"

var reclamationColumns = []any{
	"ID", "Mission", "Evaluation", "Creator", "Creator type", "Subject",
	"Description", "Status", "Response", "Responded at", "Created at", "Updated at",
}

// ExportReclamations writes every reclamation matching the filter as an XLSX
// workbook. Paging fields of the filter are ignored.
func (rs *ReclamationService) ExportReclamations(ctx context.Context, actor auth.User, filter ReclamationFilter, w io.Writer) error {
	tracer := rs.logger.WithContext(ctx).Operation("export_reclamations").
		WithUUID("actor_id", actor.ID).
		Build()

	if !actor.IsAdmin() {
		return NewErrUnauthorized(actor.ID, "export reclamations")
	}

	reclamations, err := rs.store.Reclamation().List(ctx, rs.storeFilter(actor, filter),
		store.NewQueryOptions().WithSortOrder(store.SortByCreatedTime))
	if err != nil {
		return fmt.Errorf("failed to list reclamations: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", reclamationSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(reclamationSheet, "A1", &reclamationColumns); err != nil {
		return err
	}

	for i, r := range reclamations {
		row := []any{
			r.ID.String(),
			uuidOrEmpty(r.MissionID),
			uuidOrEmpty(r.EvaluationID),
			r.CreatorID.String(),
			string(r.CreatorType),
			r.Subject,
			r.Description,
			string(r.Status),
			stringOrEmpty(r.Response),
			timeOrEmpty(r.RespondedAt),
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.UpdatedAt.UTC().Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(reclamationSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	tracer.Success().WithInt("count", len(reclamations)).Log()
	return nil
}

func uuidOrEmpty(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
