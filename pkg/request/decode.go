package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/matzehuels/imprint/pkg/document"
	"github.com/matzehuels/imprint/pkg/errors"
)

// Skipped is a batch record that could not be turned into a request.
type Skipped struct {
	Index  int    // position in the input, 0-based
	Label  string // best-effort name of the record
	Reason string
	Err    error
}

// Decode parses one request record. Besides the native field names, the
// record shapes written by the older order entry tools are accepted:
//
//	{"ID": "42", "imagem": "card.png", "texto": "Ana", "fonte": "x.ttf"}
//	{"order_id": "42", "template_image": "card.png", "text_to_add": "Ana"}
//	{"output_pdf": "a.pdf", "paginas": [{"imagem": "p1.png", "texto": "..."}]}
//	{"output_pdf": "a.pdf", "input_pdf_base": "base.pdf",
//	 "pagina_frente": {"template_imagem": "front", "texto": "..."}}
func Decode(data []byte) (Request, error) {
	var w wireRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&w); err != nil {
		return Request{}, errors.Wrap(errors.ErrCodeInvalidRequest, err, "malformed request record")
	}
	return w.request(), nil
}

// DecodeBatch reads a JSON array of request records (a single object is
// accepted as a batch of one). Records that fail to decode or validate are
// returned as Skipped and do not stop the rest of the batch. Only input that
// is not JSON at all fails the call.
func DecodeBatch(r io.Reader) ([]Request, []Skipped, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeConfiguration, err, "read batch input")
	}
	data = bytes.TrimSpace(data)

	var raw []json.RawMessage
	if len(data) > 0 && data[0] == '{' {
		raw = []json.RawMessage{data}
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidRequest, err, "batch input must be a JSON array of requests")
	}

	var (
		reqs    []Request
		skipped []Skipped
	)
	for i, msg := range raw {
		req, err := Decode(msg)
		if err == nil {
			err = req.Validate()
		}
		if err != nil {
			skipped = append(skipped, Skipped{
				Index:  i,
				Label:  labelOr(req, i),
				Reason: errors.UserMessage(err),
				Err:    err,
			})
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs, skipped, nil
}

func labelOr(r Request, i int) string {
	if r.Output != "" || r.ID != "" {
		return r.Label()
	}
	return fmt.Sprintf("#%d", i+1)
}

// wireRequest accepts native and legacy field names.
type wireRequest struct {
	ID      flexString `json:"id"`
	OrderID flexString `json:"order_id"`

	Output    string `json:"output"`
	OutputPDF string `json:"output_pdf"`
	Format    string `json:"format"`

	Template      string `json:"template"`
	Imagem        string `json:"imagem"`
	TemplateImage string `json:"template_image"`

	Text      *string `json:"text"`
	Texto     *string `json:"texto"`
	TextToAdd *string `json:"text_to_add"`

	Font         string `json:"font"`
	Fonte        string `json:"fonte"`
	FontOverride string `json:"font_override"`

	BaseDocument string `json:"base_document"`
	InputPDFBase string `json:"input_pdf_base"`

	Pages        []wirePage `json:"pages"`
	Paginas      []wirePage `json:"paginas"`
	PaginaFrente *wirePage  `json:"pagina_frente"`
}

type wirePage struct {
	Template       string  `json:"template"`
	Imagem         string  `json:"imagem"`
	TemplateImagem string  `json:"template_imagem"`
	Text           *string `json:"text"`
	Texto          *string `json:"texto"`
	Font           string  `json:"font"`
	Fonte          string  `json:"fonte"`
	SourcePage     *int    `json:"source_page"`
}

func (w wireRequest) request() Request {
	r := Request{
		ID:           first(string(w.ID), string(w.OrderID)),
		Output:       first(w.Output, w.OutputPDF),
		Format:       document.Format(w.Format),
		Template:     first(w.Template, w.Imagem, w.TemplateImage),
		Text:         firstPtr(w.Text, w.Texto, w.TextToAdd),
		Font:         first(w.Font, w.Fonte, w.FontOverride),
		BaseDocument: first(w.BaseDocument, w.InputPDFBase),
	}
	if w.OutputPDF != "" && r.Format == "" {
		r.Format = document.FormatPDF
	}
	pages := w.Pages
	if len(pages) == 0 {
		pages = w.Paginas
	}
	for _, p := range pages {
		r.Pages = append(r.Pages, p.page())
	}
	if w.PaginaFrente != nil && len(r.Pages) == 0 {
		front := w.PaginaFrente.page()
		r.Template, r.Text, r.Font = front.Template, front.Text, front.Font
	}
	return r
}

func (p wirePage) page() Page {
	return Page{
		Template:   first(p.Template, p.Imagem, p.TemplateImagem),
		Text:       firstPtr(p.Text, p.Texto),
		Font:       first(p.Font, p.Fonte),
		SourcePage: p.SourcePage,
	}
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPtr(vals ...*string) *string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// flexString decodes a JSON string or number as a string; spreadsheet
// exports often write numeric order ids.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	if _, err := strconv.ParseFloat(string(n), 64); err != nil {
		return err
	}
	*s = flexString(n)
	return nil
}
