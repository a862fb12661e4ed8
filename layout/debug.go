package layout

import (
	"encoding/json"
	"io"
	"os"
)

type debugPage struct {
	Index  int     `json:"index"`
	Offset float64 `json:"offset"`
	Blocks []int   `json:"blocks"`
	Lines  []Line  `json:"lines"`
}

type debugDocument struct {
	Font       FontSpec    `json:"font"`
	Width      float64     `json:"width"`
	PageHeight float64     `json:"pageHeight"`
	LineHeight float64     `json:"lineHeight"`
	Height     float64     `json:"height"`
	PageCount  int         `json:"pageCount"`
	Pages      []debugPage `json:"pages"`
}

func (d *Document) debugView() debugDocument {
	view := debugDocument{
		Font:       d.font,
		Width:      d.width,
		PageHeight: d.pageHeight,
		LineHeight: d.lineHeight,
		Height:     d.height,
		PageCount:  d.PageCount(),
	}
	for i := 0; i < view.PageCount; i++ {
		page := debugPage{Index: i, Offset: d.PageOffset(i), Blocks: []int{}}
		for _, b := range d.BlocksOnPage(i) {
			page.Blocks = append(page.Blocks, b.Number)
		}
		page.Lines = d.LinesOnPage(i)
		view.Pages = append(view.Pages, page)
	}
	return view
}

// EncodeDebugJSON 将分页结果以 JSON 写入 w，便于调试或可视化。
func EncodeDebugJSON(doc *Document, w io.Writer) error {
	if doc == nil {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc.debugView())
}

// WriteDebugJSON 将分页结果输出为 JSON 文件。
func WriteDebugJSON(doc *Document, path string) error {
	if doc == nil {
		return nil
	}
	data, err := json.MarshalIndent(doc.debugView(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
