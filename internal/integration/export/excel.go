package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"ats-pipeline/internal/domain"
	"ats-pipeline/internal/pipeline"
)

const (
	SheetPipeline = "Pipeline"
	SheetSummary  = "Resumen"
)

var pipelineHeader = []any{"Nombre", "Email", "Teléfono", "Etapa", "Puntuación", "Evaluaciones", "Estado", "Origen", "Aplicó"}

// Excel 导出职位的候选人漏斗
type Excel struct{}

func (Excel) WritePipeline(w io.Writer, app *domain.Application, views []domain.CandidateView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetPipeline); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}
	if err := writeRows(f, views); err != nil {
		return fmt.Errorf("pipeline sheet: %w", err)
	}
	if err := writeSummary(f, app, views); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	_, err := f.WriteTo(w)
	return err
}

func writeRows(f *excelize.File, views []domain.CandidateView) error {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetPipeline, "A1", &pipelineHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetPipeline, "A1", "I1", header); err != nil {
		return err
	}
	_ = f.SetColWidth(SheetPipeline, "A", "B", 28)
	_ = f.SetColWidth(SheetPipeline, "C", "I", 16)

	for i, v := range views {
		var score any = ""
		if v.Score != nil {
			score = *v.Score
		}
		row := []any{v.Name, v.Email, v.Phone, v.Stage, score, v.EvaluationCount, string(v.Status), v.Source, v.AppliedAt.Format("2006-01-02")}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetPipeline, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, app *domain.Application, views []domain.CandidateView) error {
	counts := map[pipeline.StageID]int{}
	unknown := 0
	for _, v := range views {
		if st, ok := pipeline.Resolve(v.Stage); ok {
			counts[st.ID]++
		} else {
			unknown++
		}
	}
	rows := [][]any{
		{"Proceso", app.Title},
		{"Departamento", app.Department},
		{"Estado", string(app.Status)},
		{"Candidatos", len(views)},
		{},
	}
	for _, st := range pipeline.Stages() {
		rows = append(rows, []any{st.DisplayName, counts[st.ID]})
	}
	if unknown > 0 {
		rows = append(rows, []any{"Sin etapa", unknown})
	}
	for i, r := range rows {
		if len(r) == 0 {
			continue
		}
		if err := f.SetSheetRow(SheetSummary, fmt.Sprintf("A%d", i+1), &r); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetSummary, "A", "A", 20)
}
