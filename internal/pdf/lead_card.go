package pdf

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"autodealer/internal/models"
)

// LeadCard is everything printed on a lead's one-page summary.
type LeadCard struct {
	Lead          *models.Lead
	AssigneeEmail string
	Tasks         []models.LeadTask
	Activities    []models.Activity
	GeneratedAt   time.Time
}

// CardGenerator renders lead cards. With FontPath set, text is drawn with
// that TTF so Cyrillic survives; without it the core Helvetica font is used.
type CardGenerator struct {
	FontPath string
	fontName string
}

func NewCardGenerator(fontPath string) *CardGenerator {
	g := &CardGenerator{FontPath: fontPath, fontName: "Helvetica"}
	if fontPath != "" {
		g.fontName = "DejaVu"
	}
	return g
}

var stageTitles = map[models.PipelineStage]string{
	models.StageNewLead:       "Новый лид",
	models.StageFirstContact:  "Первый контакт",
	models.StageQualification: "Квалификация",
	models.StageNeedsAnalysis: "Анализ потребностей",
	models.StagePresentation:  "Презентация",
	models.StageNegotiation:   "Переговоры",
	models.StageDealClosing:   "Закрытие сделки",
	models.StageWon:           "Сделка выиграна",
	models.StageLost:          "Сделка проиграна",
}

const maxCardActivities = 15

func (g *CardGenerator) Render(w io.Writer, card LeadCard) error {
	lead := card.Lead
	if lead == nil {
		return fmt.Errorf("lead card: no lead")
	}
	if card.GeneratedAt.IsZero() {
		card.GeneratedAt = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Лид #%d", lead.ID), true)
	pdf.SetAuthor("autodealer", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	if g.FontPath != "" {
		pdf.AddUTF8Font(g.fontName, "", g.FontPath)
		pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
	}
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, fmt.Sprintf("Карточка лида #%d", lead.ID), "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, "Сформировано "+card.GeneratedAt.Format("02.01.2006 15:04"), "", 1, "C", false, 0, "")
	g.hr(pdf)

	g.sectionTitle(pdf, "Клиент")
	g.kvLine(pdf, "Имя", lead.Name)
	g.kvLine(pdf, "Телефон", orDash(lead.Phone))
	g.kvLine(pdf, "Email", orDash(lead.Email))
	if lead.TelegramUsername != "" {
		g.kvLine(pdf, "Telegram", "@"+lead.TelegramUsername)
	}
	g.kvLine(pdf, "Источник", string(lead.Source))
	g.hr(pdf)

	g.sectionTitle(pdf, "Воронка")
	stage := stageTitles[lead.PipelineStage]
	if stage == "" {
		stage = string(lead.PipelineStage)
	}
	g.kvLine(pdf, "Этап", stage)
	g.kvLine(pdf, "Статус", string(lead.Status))
	g.kvLine(pdf, "Приоритет", string(lead.Priority))
	g.kvLine(pdf, "Оценка", fmt.Sprintf("%d / 100", lead.Score))
	g.kvLine(pdf, "Ответственный", orDash(card.AssigneeEmail))
	if lead.NextFollowUpDate != nil {
		g.kvLine(pdf, "Следующий контакт", lead.NextFollowUpDate.Format("02.01.2006 15:04"))
	}
	if lead.Description != "" {
		pdf.Ln(1)
		pdf.SetFont(g.fontName, "", 11)
		pdf.MultiCell(0, 6, lead.Description, "", "L", false)
	}
	g.hr(pdf)

	g.sectionTitle(pdf, fmt.Sprintf("Задачи (%d)", len(card.Tasks)))
	if len(card.Tasks) == 0 {
		pdf.CellFormat(0, 6, "Задач нет", "", 1, "L", false, 0, "")
	}
	for _, t := range card.Tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		due := "без срока"
		if t.DueDate != nil {
			due = "до " + t.DueDate.Format("02.01.2006")
		}
		pdf.MultiCell(0, 6, fmt.Sprintf("%s %s, %s", mark, t.Title, due), "", "L", false)
	}
	g.hr(pdf)

	g.sectionTitle(pdf, "Последние события")
	activities := card.Activities
	if len(activities) > maxCardActivities {
		activities = activities[:maxCardActivities]
	}
	for _, a := range activities {
		line := fmt.Sprintf("%s  %s", a.CreatedAt.Format("02.01 15:04"), a.ActivityType)
		switch {
		case a.Field != "":
			line += fmt.Sprintf(": %s %s -> %s", a.Field, orDash(a.OldValue), orDash(a.NewValue))
		case a.Description != "":
			line += ": " + a.Description
		}
		pdf.MultiCell(0, 5, line, "", "L", false)
	}

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Стр. %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	return pdf.Output(w)
}

func (g *CardGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *CardGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(50, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *CardGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
