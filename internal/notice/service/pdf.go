package service

import (
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

func generatePDF(title, body string, issuedAt time.Time) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Pagina {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(12, title, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, "Emitido em "+issuedAt.Format("02/01/2006"), props.Text{
			Size:  9,
			Align: align.Left,
		}),
	)
	m.AddRow(2, col.New(12))

	for _, paragraph := range strings.Split(body, "\n") {
		paragraph = strings.TrimRight(paragraph, "\r")
		if strings.TrimSpace(paragraph) == "" {
			m.AddRow(4, col.New(12))
			continue
		}
		m.AddRow(8,
			text.NewCol(12, paragraph, props.Text{
				Size:  10,
				Align: align.Left,
			}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
