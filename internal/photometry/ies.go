package photometry

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads an IES LM-63 photometric file from raw text. It proceeds in
// four phases: bracketed keyword header, tilt specifier, the two numeric
// metadata records, then the angle arrays and candela matrix.
//
// The angle arrays and candela matrix are read as token streams, not as
// fixed line counts: numeric tokens are accumulated across as many physical
// lines as needed until the element counts declared in the metadata record
// are satisfied. IES writers wrap arrays at arbitrary column widths, so a
// line-per-record reader under-reads real files.
func Parse(text string) (*Dataset, error) {
	p := &parser{lines: splitLines(text)}
	d := &Dataset{
		Keywords: make(map[string]string),
		TiltMode: "",
	}

	if err := p.parseHeader(d); err != nil {
		return nil, err
	}
	if err := p.parseTilt(d); err != nil {
		return nil, err
	}
	if err := p.parsePhotometricRecords(d); err != nil {
		return nil, err
	}
	if err := p.parseAnglesAndCandela(d); err != nil {
		return nil, err
	}
	return d, nil
}

type parser struct {
	lines []string
	pos   int // index of next unread line

	queue     []string // tokens remaining from the current line
	queueLine int      // 1-based line number the queue came from
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}

// parseHeader consumes keyword lines until the TILT= line. The TILT line
// itself is left for parseTilt. Lines that are not bracketed keywords are
// retained verbatim; old IES revisions put free text here.
func (p *parser) parseHeader(d *Dataset) error {
	for p.pos < len(p.lines) {
		line := strings.TrimSpace(p.lines[p.pos])
		if strings.HasPrefix(line, "TILT=") {
			return nil
		}
		p.pos++
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			if end := strings.Index(line, "]"); end > 0 {
				key := strings.ToUpper(strings.TrimSpace(line[1:end]))
				val := strings.TrimSpace(line[end+1:])
				if prev, ok := d.Keywords[key]; ok && prev != "" {
					// Repeated keywords ([MORE] continuation and the like)
					// accumulate rather than overwrite.
					d.Keywords[key] = prev + "\n" + val
				} else {
					d.Keywords[key] = val
				}
				continue
			}
		}
		d.RawHeader = append(d.RawHeader, line)
	}
	return &ParseError{Kind: MissingTiltSpecifier, Line: len(p.lines)}
}

// parseTilt reads the single TILT= line. INCLUDE mode pulls the tilt table
// (lamp geometry code, pair count, angles, multipliers) from the token
// stream before the photometric records begin.
func (p *parser) parseTilt(d *Dataset) error {
	if p.pos >= len(p.lines) {
		return &ParseError{Kind: MissingTiltSpecifier, Line: len(p.lines)}
	}
	line := strings.TrimSpace(p.lines[p.pos])
	p.pos++
	value := strings.TrimSpace(strings.TrimPrefix(line, "TILT="))

	switch {
	case strings.EqualFold(value, TiltNone):
		d.TiltMode = TiltNone
	case strings.EqualFold(value, TiltInclude):
		d.TiltMode = TiltInclude
		geom, err := p.readFloats(1)
		if err != nil {
			return err
		}
		count, err := p.readFloats(1)
		if err != nil {
			return err
		}
		n := int(count[0])
		if n < 0 {
			n = 0
		}
		angles, err := p.readFloats(n)
		if err != nil {
			return err
		}
		mults, err := p.readFloats(n)
		if err != nil {
			return err
		}
		d.Tilt = &TiltTable{
			LampToLuminaire: int(geom[0]),
			Angles:          angles,
			Multipliers:     mults,
		}
	case value == "":
		return &ParseError{Kind: MissingTiltSpecifier, Line: p.pos}
	default:
		// TILT=FILE=<path> or the older TILT=<filename> form.
		d.TiltMode = TiltFile
		d.TiltFile = strings.TrimSpace(strings.TrimPrefix(value, "FILE="))
	}
	return nil
}

// parsePhotometricRecords reads the two numeric metadata records: ten values
// describing the lamp and distribution shape, then three ballast values.
func (p *parser) parsePhotometricRecords(d *Dataset) error {
	rec1, err := p.readFloats(10)
	if err != nil {
		return err
	}
	d.LampCount = int(rec1[0])
	d.LumensPerLamp = rec1[1]
	d.CandelaMultiplier = rec1[2]
	nv := int(rec1[3])
	nh := int(rec1[4])
	d.PhotometricType = int(rec1[5])
	d.UnitsType = int(rec1[6])
	d.OpeningWidth = rec1[7]
	d.OpeningLength = rec1[8]
	d.OpeningHeight = rec1[9]

	if nv < 1 || nh < 1 {
		return fmt.Errorf("ies parse: invalid angle counts %dx%d in photometric record", nv, nh)
	}
	d.VerticalAngles = make([]float64, 0, nv)
	d.HorizontalAngles = make([]float64, 0, nh)

	rec2, err := p.readFloats(3)
	if err != nil {
		return err
	}
	d.BallastFactor = rec2[0]
	d.BallastLampFactor = rec2[1]
	d.InputWatts = rec2[2]
	return nil
}

// parseAnglesAndCandela reads the vertical angles, horizontal angles, and
// the candela matrix (one row per horizontal angle), each as a token stream.
func (p *parser) parseAnglesAndCandela(d *Dataset) error {
	nv := cap(d.VerticalAngles)
	nh := cap(d.HorizontalAngles)

	va, err := p.readFloats(nv)
	if err != nil {
		return err
	}
	ha, err := p.readFloats(nh)
	if err != nil {
		return err
	}
	d.VerticalAngles = va
	d.HorizontalAngles = ha

	d.Candela = make([][]float64, nh)
	for h := 0; h < nh; h++ {
		row, err := p.readFloats(nv)
		if err != nil {
			return err
		}
		d.Candela[h] = row
	}
	return nil
}

// readFloats returns the next n numeric tokens, pulling additional physical
// lines into the token queue as needed.
func (p *parser) readFloats(n int) ([]float64, error) {
	out := make([]float64, 0, n)
	for len(out) < n {
		tok, line, ok := p.nextToken()
		if !ok {
			return nil, &ParseError{Kind: UnexpectedEndOfData}
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, &ParseError{Kind: MalformedNumber, Line: line, Token: tok}
		}
		out = append(out, v)
	}
	return out, nil
}

func (p *parser) nextToken() (tok string, line int, ok bool) {
	for len(p.queue) == 0 {
		if p.pos >= len(p.lines) {
			return "", 0, false
		}
		p.queue = splitTokens(p.lines[p.pos])
		p.pos++
		p.queueLine = p.pos
	}
	tok = p.queue[0]
	p.queue = p.queue[1:]
	return tok, p.queueLine, true
}

// splitTokens splits a data line on whitespace and commas. Some IES writers
// comma-separate the angle arrays.
func splitTokens(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}
