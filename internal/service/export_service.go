package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/model"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/internal/repository"
	apperrors "github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/errors"
)

// ── export errors ──

var (
	ErrExportNoCourses    = apperrors.Denied("The programme has no courses to export.")
	ErrExportGenerateFail = apperrors.Conflict("Failed to generate the Excel file.")
)

// ExportService spreadsheet exports.
//
// The course scheme of a programme regulation is exported as .xlsx with one
// sheet per semester, followed by one sheet per category for courses not
// bound to a semester.
type ExportService interface {
	ExportScheme(ctx context.Context, prgmRegulationID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var schemeHeader = []string{"Code", "Title", "Type", "Category", "Vertical", "L", "T", "P", "C", "Prerequisites", "Status"}

// ═══════════════════════════════════════════════════════════
// ExportScheme
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportScheme(ctx context.Context, prgmRegulationID string) (*bytes.Buffer, string, error) {
	// 1. scheme and its regulation
	scheme, err := s.repo.ProgrammeRegulation.Get(ctx, prgmRegulationID)
	if err != nil {
		err = notFoundOr(err, ErrProgrammeRegulationNotFound)
		if !apperrors.HasKind(err, apperrors.KindNotFound) {
			s.logger.Error("failed to load programme regulation", zap.String("id", prgmRegulationID), zap.Error(err))
		}
		return nil, "", err
	}
	reg, err := s.repo.Regulation.Get(ctx, scheme.RegulationID)
	if err != nil {
		err = notFoundOr(err, ErrRegulationNotFound)
		if !apperrors.HasKind(err, apperrors.KindNotFound) {
			s.logger.Error("failed to load regulation", zap.String("id", scheme.RegulationID), zap.Error(err))
		}
		return nil, "", err
	}

	// 2. courses, grouped by sheet
	courses, err := s.repo.Course.Find(ctx, model.CourseFilter{RegulationID: scheme.RegulationID, ProgrammeID: scheme.Programme.ID})
	if err != nil {
		s.logger.Error("failed to load courses", zap.String("id", prgmRegulationID), zap.Error(err))
		return nil, "", err
	}
	if len(courses) == 0 {
		return nil, "", ErrExportNoCourses
	}

	groups := make(map[string][]model.Course)
	var semesters []int
	var categories []string
	for _, c := range courses {
		label := c.SemesterLabel()
		if _, ok := groups[label]; !ok {
			if c.Semester != nil {
				semesters = append(semesters, *c.Semester)
			} else {
				categories = append(categories, label)
			}
		}
		groups[label] = append(groups[label], c)
	}
	sort.Ints(semesters)
	sort.Strings(categories)

	order := make([]string, 0, len(groups))
	for _, sem := range semesters {
		order = append(order, fmt.Sprintf("Semester %d", sem))
	}
	order = append(order, categories...)

	// 3. workbook
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 13},
	})

	title := fmt.Sprintf("%s - %s %d v%d", scheme.Programme.Name, reg.Title, reg.Year, reg.Version)
	for i, label := range order {
		sheet := sheetName(label)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				s.logger.Error("failed to name sheet", zap.Error(err))
				return nil, "", ErrExportGenerateFail
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			s.logger.Error("failed to add sheet", zap.String("sheet", sheet), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		if err := writeSchemeSheet(f, sheet, title, label, groups[label], headerStyle, titleStyle); err != nil {
			s.logger.Error("failed to write sheet", zap.String("sheet", sheet), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
	}
	f.SetActiveSheet(0)

	// 4. buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("failed to write workbook", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	name := scheme.Programme.ShortName
	if name == "" {
		name = scheme.Programme.Name
	}
	filename := fmt.Sprintf("scheme_%s_%d_v%d.xlsx", strings.ReplaceAll(name, " ", "_"), reg.Year, reg.Version)
	return buf, filename, nil
}

func writeSchemeSheet(f *excelize.File, sheet, title, label string, courses []model.Course, headerStyle, titleStyle int) error {
	last, _ := excelize.ColumnNumberToName(len(schemeHeader))

	if err := f.SetCellValue(sheet, "A1", title+" - "+label); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", last+"1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", titleStyle); err != nil {
		return err
	}

	for i, h := range schemeHeader {
		c, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheet, c, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A2", last+"2", headerStyle); err != nil {
		return err
	}

	_ = f.SetColWidth(sheet, "A", "A", 12)
	_ = f.SetColWidth(sheet, "B", "B", 40)
	_ = f.SetColWidth(sheet, "C", "E", 16)
	_ = f.SetColWidth(sheet, "J", "J", 24)
	_ = f.SetColWidth(sheet, "K", "K", 22)

	var credits float64
	row := 3
	for _, c := range courses {
		prereqs := make([]string, 0, len(c.Prerequisites))
		for _, p := range c.Prerequisites {
			prereqs = append(prereqs, p.CourseCode)
		}
		values := []interface{}{
			c.Code, c.Title, c.Type, c.Category, c.Vertical,
			c.Ltpc.L, c.Ltpc.T, c.Ltpc.P, c.Ltpc.C,
			strings.Join(prereqs, ", "), c.Status.Display(),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return err
		}
		credits += c.Ltpc.C
		row++
	}

	if err := f.SetCellValue(sheet, fmt.Sprintf("H%d", row), "Total"); err != nil {
		return err
	}
	return f.SetCellValue(sheet, fmt.Sprintf("I%d", row), credits)
}

// sheetName fits excelize's 31 character limit and drops forbidden
// characters.
func sheetName(label string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '-'
		}
		return r
	}, label)
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
