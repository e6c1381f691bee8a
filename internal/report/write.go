package report

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"covmark/internal/cover"
	"covmark/internal/source"
)

// EncodeStates renders a dense state array (index = line) as a RES: string.
// Index 0 is skipped because lines are 1-based.
func EncodeStates(states []cover.State) string {
	if len(states) <= 1 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(states) - 1)
	for _, s := range states[1:] {
		sb.WriteByte(s.Byte())
	}
	return sb.String()
}

func encodeLines(v *cover.BitVector) string {
	if v.Count() <= 1 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(v.Count() - 1)
	for line := 1; line < v.Count(); line++ {
		covered, ok := v.Get(line)
		switch {
		case !ok:
			sb.WriteByte('_')
		case covered:
			sb.WriteByte('c')
		default:
			sb.WriteByte('u')
		}
	}
	return sb.String()
}

// WriteBlock writes a single FILE:/RES:/PROF: block.
func WriteBlock(w io.Writer, path string, e *cover.Entry) error {
	var sb strings.Builder
	sb.WriteString(markerFile + " " + path + "\n")
	sb.WriteString(markerRes + " " + encodeLines(e.Lines) + "\n")
	sb.WriteString(markerProf + " ")
	encodeProfile(&sb, e.Profile.Len(), func(i int) (uint8, uint8) {
		p := e.Profile.Get(i)
		return p.Deep, p.Shallow
	})
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteNative writes idx in the native report format, files in key order.
// Parsing the output yields an Equal index.
func WriteNative(w io.Writer, idx *Index) error {
	bw := bufio.NewWriter(w)
	for _, key := range idx.Keys() {
		if err := WriteBlock(bw, idx.Path(key), idx.entries[key]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

type coberturaLine struct {
	Number int `xml:"number,attr"`
	Hits   int `xml:"hits,attr"`
}

type coberturaClass struct {
	Name     string          `xml:"name,attr"`
	Filename string          `xml:"filename,attr"`
	LineRate string          `xml:"line-rate,attr"`
	Lines    []coberturaLine `xml:"lines>line"`
}

type coberturaPackage struct {
	Name     string           `xml:"name,attr"`
	LineRate string           `xml:"line-rate,attr"`
	Classes  []coberturaClass `xml:"classes>class"`
}

type coberturaReport struct {
	XMLName      xml.Name           `xml:"coverage"`
	LineRate     string             `xml:"line-rate,attr"`
	LinesCovered int                `xml:"lines-covered,attr"`
	LinesValid   int                `xml:"lines-valid,attr"`
	Timestamp    int64              `xml:"timestamp,attr"`
	Packages     []coberturaPackage `xml:"packages>package"`
}

func rate(covered, total int) string {
	if total == 0 {
		return "1"
	}
	return strconv.FormatFloat(float64(covered)/float64(total), 'f', 4, 64)
}

func entryLines(e *cover.Entry, fn func(line int, covered bool)) {
	for line, covered := range e.Lines.Enumerate() {
		fn(line, covered)
	}
}

// WriteCobertura writes idx as a Cobertura XML document with one package.
func WriteCobertura(w io.Writer, idx *Index, pkg string) error {
	overview := idx.Overview()
	totals := Totals(overview)
	doc := coberturaReport{
		LineRate:     rate(totals.Covered, totals.Total()),
		LinesCovered: totals.Covered,
		LinesValid:   totals.Total(),
		Timestamp:    stamp(idx.FileDate),
	}
	p := coberturaPackage{Name: pkg, LineRate: doc.LineRate}
	for _, row := range overview {
		path := idx.Path(row.Key)
		class := coberturaClass{
			Name:     source.BaseName(path),
			Filename: path,
			LineRate: rate(row.Covered, row.Total()),
		}
		entryLines(idx.entries[row.Key], func(line int, covered bool) {
			hits := 0
			if covered {
				hits = 1
			}
			class.Lines = append(class.Lines, coberturaLine{Number: line, Hits: hits})
		})
		p.Classes = append(p.Classes, class)
	}
	doc.Packages = []coberturaPackage{p}
	return writeXML(w, doc)
}

type cloverLine struct {
	Num   int    `xml:"num,attr"`
	Count int    `xml:"count,attr"`
	Type  string `xml:"type,attr"`
}

type cloverMetrics struct {
	Files             int `xml:"files,attr"`
	Statements        int `xml:"statements,attr"`
	CoveredStatements int `xml:"coveredstatements,attr"`
}

type cloverFile struct {
	Name  string       `xml:"name,attr"`
	Path  string       `xml:"path,attr"`
	Lines []cloverLine `xml:"line"`
}

type cloverPackage struct {
	Name  string       `xml:"name,attr"`
	Files []cloverFile `xml:"file"`
}

type cloverProject struct {
	Timestamp int64         `xml:"timestamp,attr"`
	Metrics   cloverMetrics `xml:"metrics"`
	Package   cloverPackage `xml:"package"`
}

type cloverReport struct {
	XMLName   xml.Name      `xml:"coverage"`
	Generated int64         `xml:"generated,attr"`
	Clover    string        `xml:"clover,attr"`
	Project   cloverProject `xml:"project"`
}

// WriteClover writes idx as a Clover XML document.
func WriteClover(w io.Writer, idx *Index, pkg string) error {
	overview := idx.Overview()
	totals := Totals(overview)
	ts := stamp(idx.FileDate)
	doc := cloverReport{
		Generated: ts,
		Clover:    "3.1.5",
		Project: cloverProject{
			Timestamp: ts,
			Metrics: cloverMetrics{
				Files:             len(overview),
				Statements:        totals.Total(),
				CoveredStatements: totals.Covered,
			},
			Package: cloverPackage{Name: pkg},
		},
	}
	for _, row := range overview {
		path := idx.Path(row.Key)
		f := cloverFile{Name: source.BaseName(path), Path: path}
		entryLines(idx.entries[row.Key], func(line int, covered bool) {
			count := 0
			if covered {
				count = 1
			}
			f.Lines = append(f.Lines, cloverLine{Num: line, Count: count, Type: "stmt"})
		})
		doc.Project.Package.Files = append(doc.Project.Package.Files, f)
	}
	return writeXML(w, doc)
}

func stamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func writeXML(w io.Writer, doc any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode xml: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
