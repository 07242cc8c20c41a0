// Package brenda parses BRENDA flat-file exports into raw reaction records.
// Only the sections the curation pipeline needs are read: the PROTEIN section
// for organism and protein-reference annotations, and the two
// substrate/product sections for the reactions themselves.
package brenda

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/enzymemap/pkg/errors"
	"github.com/turtacn/enzymemap/pkg/types/common"
	rtypes "github.com/turtacn/enzymemap/pkg/types/reaction"
)

const (
	headerNaturalSubstrateProduct = "NATURAL_SUBSTRATE_PRODUCT"
	headerSubstrateProduct        = "SUBSTRATE_PRODUCT"
	headerProtein                 = "PROTEIN"

	tagNSP = "NSP"
	tagSP  = "SP"
	tagPR  = "PR"
)

var (
	tagRe            = regexp.MustCompile(`^([A-Z0-9]+)(?:\t|$|_)`)
	orgRe            = regexp.MustCompile(`^(#(?:[0-9]+[, ]*?)+#)`)
	listSplitRe      = regexp.MustCompile(`[, ]+`)
	refRe            = regexp.MustCompile(`^.*(<.*?>)[^<>]*$`)
	commentRe        = regexp.MustCompile(`\(#(?:[0-9]+[, ]*?)+#[^()]*\)`)
	productCommentRe = regexp.MustCompile(`\|#(?:[0-9]+[, ]*?)+#[^|]*\|`)
	reversibleRe     = regexp.MustCompile(`\{\w*\} *$`)
	coefficientRe    = regexp.MustCompile(`^(\d+) `)
	uniprotRe        = regexp.MustCompile(`[OPQ][0-9][A-Z0-9]{3}[0-9]|[A-NR-Z][0-9](?:[A-Z][A-Z0-9]{2}[0-9]){1,2}`)
	genbankRe        = regexp.MustCompile(`[A-Z]{1,6}[0-9]{5,8}`)
	proteinDBRe      = regexp.MustCompile(`(?i)(UniProt|GenBank|SwissProt)`)
	blankLinesRe     = regexp.MustCompile(`\n\n+`)
)

// nadFixes repairs the recurring cofactor typos in upstream equation text.
// Applied in order before the equation is split into participants.
var nadFixes = [...][2]string{
	{"NADH+ H+", "NADH + H+"},
	{"NADPH+ H+", "NADPH + H+"},
	{"NAD(+)", "NAD+"},
	{"NAD(H)", "NADH"},
	{"NADP(+)", "NADP+"},
	{"NADP(H)", "NADPH"},
	{"NADPh", "NADPH"},
	{"NADp+", "NADP+"},
	{"NAD ", "NAD+ "},
}

// Parser reads BRENDA flat files.
type Parser struct {
	logger logging.Logger
}

// NewParser constructs a Parser.
func NewParser(logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Parser{logger: logger.Named("brenda")}
}

// ParseFile parses the BRENDA flat file at path.
func (p *Parser) ParseFile(path string) ([]rtypes.RawReaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "cannot open source file").
			WithDetail("path=" + path)
	}
	defer f.Close()
	return p.Parse(f)
}

// Parse parses BRENDA flat-file text from r.  Enzyme entries are delimited
// by lines starting with "///"; malformed entries are skipped with a warning
// rather than failing the whole file.
func (p *Parser) Parse(r io.Reader) ([]rtypes.RawReaction, error) {
	var (
		reactions []rtypes.RawReaction
		buf       strings.Builder
	)

	flush := func() {
		entry := buf.String()
		buf.Reset()
		if strings.TrimSpace(entry) == "" {
			return
		}
		recs, err := p.parseEntry(entry)
		if err != nil {
			p.logger.Warn("skipping malformed entry", logging.Err(err))
			return
		}
		reactions = append(reactions, recs...)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "///") {
			flush()
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceParseError, "cannot read source file")
	}
	flush()

	reactions = dedupe(reactions)
	reactions = dropTranslocases(reactions)

	p.logger.Info("parsed source file", logging.Int("reactions", len(reactions)))
	return reactions, nil
}

// protein is one numbered organism annotation from the PROTEIN section.
type protein struct {
	organism  string
	refIDs    []string
	proteinDB string
}

// parseEntry parses one "///"-delimited enzyme entry.
func (p *Parser) parseEntry(entry string) ([]rtypes.RawReaction, error) {
	entry = strings.TrimSpace(blankLinesRe.ReplaceAllString(entry, "\n\n"))
	sections := strings.Split(entry, "\n\n")
	if len(sections) == 0 {
		return nil, errors.New(errors.ErrCodeSourceParseError, "empty entry")
	}

	ecNumber, err := parseECHeader(sections[0])
	if err != nil {
		return nil, err
	}
	if ecNumber == "" {
		// Transferred or deleted entry.
		return nil, nil
	}

	proteins := map[string]protein{}
	var reactions []rtypes.RawReaction

	for _, section := range sections {
		section = strings.TrimSpace(section)
		header, body, ok := strings.Cut(section, "\n")
		if !ok {
			continue
		}
		header, body = strings.TrimSpace(header), strings.TrimSpace(body)

		switch header {
		case headerProtein:
			parseProteinSection(body, proteins)
		case headerNaturalSubstrateProduct:
			reactions = append(reactions, p.parseReactionSection(body, tagNSP, true, ecNumber, proteins)...)
		case headerSubstrateProduct:
			reactions = append(reactions, p.parseReactionSection(body, tagSP, false, ecNumber, proteins)...)
		}
	}
	return reactions, nil
}

// parseECHeader extracts the EC number from the leading ID section.  It
// returns "" for transferred or deleted entries.
func parseECHeader(section string) (string, error) {
	for _, line := range strings.Split(section, "\n") {
		_, rest, ok := strings.Cut(line, "ID\t")
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if strings.Contains(rest, "transferred") || strings.Contains(rest, "eleted") {
			return "", nil
		}
		ec, _, _ := strings.Cut(rest, " ")
		return ec, nil
	}
	return "", errors.New(errors.ErrCodeSourceParseError, "entry has no ID line")
}

// entryLines splits a section body into logical lines: continuation lines
// are joined, then the body is split at the section tag.
func entryLines(body, tag string) []string {
	joined := strings.ReplaceAll(body, "\n\t", " ")
	parts := strings.Split(joined, tag+"\t")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(strings.ReplaceAll(part, "\n", " "))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// extractOrgsDesc pulls the organism number list, the trailing literature
// references and any parenthesised comments out of one logical line, leaving
// the bare description.
func extractOrgsDesc(line string) (orgs []string, desc string) {
	if m := orgRe.FindString(line); m != "" {
		for _, org := range listSplitRe.Split(strings.Trim(m, "#"), -1) {
			if org = strings.TrimSpace(org); org != "" {
				orgs = append(orgs, org)
			}
		}
		line = strings.Replace(line, m, "", 1)
	}
	if m := refRe.FindStringSubmatch(line); m != nil {
		idx := strings.LastIndex(line, m[1])
		line = line[:idx] + line[idx+len(m[1]):]
	}
	line = productCommentRe.ReplaceAllString(line, "")
	line = commentRe.ReplaceAllString(line, "")
	return orgs, strings.TrimSpace(strings.ReplaceAll(line, "\n", " "))
}

// parseProteinSection fills the organism table from PR lines.
func parseProteinSection(body string, proteins map[string]protein) {
	for _, line := range entryLines(body, tagPR) {
		orgs, desc := extractOrgsDesc(line)
		if len(orgs) != 1 {
			continue
		}

		refIDs := uniprotRe.FindAllString(desc, -1)
		dbDefault := "uniprot"
		if len(refIDs) == 0 {
			refIDs = genbankRe.FindAllString(desc, -1)
			dbDefault = "genbank"
		}

		db := strings.ToLower(proteinDBRe.FindString(desc))
		if db == "" && len(refIDs) > 0 {
			db = dbDefault
		}

		for _, id := range refIDs {
			desc = strings.Replace(desc, id, "", 1)
		}
		if db != "" {
			desc = regexp.MustCompile("(?i)"+regexp.QuoteMeta(db)).ReplaceAllString(desc, "")
		}
		desc = strings.TrimSpace(strings.ReplaceAll(desc, " and ", " "))

		sort.Strings(refIDs)
		proteins[orgs[0]] = protein{organism: desc, refIDs: refIDs, proteinDB: db}
	}
}

// parseReactionSection parses NSP/SP lines, expanding the NAD(P) shorthand
// and emitting one record per annotated organism.
func (p *Parser) parseReactionSection(body, tag string, natural bool, ecNumber string, proteins map[string]protein) []rtypes.RawReaction {
	var out []rtypes.RawReaction
	for _, line := range entryLines(body, tag) {
		orgs, desc := extractOrgsDesc(line)
		origDesc := desc

		// A doubled NAD(P) shorthand describes two reactions, one with the
		// phosphorylated cofactor and one without.
		if strings.Count(desc, "NAD(P)") == 2 {
			desc = strings.ReplaceAll(desc, "NAD(P)", "NADP")
			plain := strings.ReplaceAll(desc, "NADP", "NAD")
			out = append(out, p.buildRecords(plain, origDesc, natural, ecNumber, orgs, proteins)...)
		} else if strings.Count(desc, "NAD(P)") == 1 {
			if strings.Contains(desc, "NADP") {
				desc = strings.ReplaceAll(desc, "NAD(P)", "NADP")
			} else {
				desc = strings.ReplaceAll(desc, "NAD(P)", "NAD")
			}
		}
		out = append(out, p.buildRecords(desc, origDesc, natural, ecNumber, orgs, proteins)...)
	}
	return out
}

// buildRecords turns one equation into records, one per annotated organism.
// Equations with unknown ("?") or catch-all ("more") participants are
// dropped.
func (p *Parser) buildRecords(desc, origDesc string, natural bool, ecNumber string, orgs []string, proteins map[string]protein) []rtypes.RawReaction {
	substrates, products, reversible, rxnText := extractEquation(desc)
	if len(substrates) == 0 {
		return nil
	}
	for _, s := range substrates {
		if s == "?" || s == "more" {
			return nil
		}
	}
	for _, prod := range products {
		if prod == "?" {
			return nil
		}
	}

	base := rtypes.RawReaction{
		ECNumber:    ecNumber,
		Substrates:  substrates,
		Products:    products,
		Reversible:  reversible,
		RxnText:     rxnText,
		OrigRxnText: origDesc,
		Natural:     natural,
	}

	if len(orgs) == 0 {
		rec := base
		rec.ID = common.NewID()
		return []rtypes.RawReaction{rec}
	}

	out := make([]rtypes.RawReaction, 0, len(orgs))
	for _, org := range orgs {
		rec := base
		rec.ID = common.NewID()
		if pr, ok := proteins[org]; ok {
			rec.Organism = pr.organism
			rec.ProteinRefs = append([]string(nil), pr.refIDs...)
			rec.ProteinDB = pr.proteinDB
		} else {
			p.logger.Debug("organism annotation not found",
				logging.String("ec", ecNumber), logging.String("org", org))
		}
		out = append(out, rec)
	}
	return out
}

// extractEquation splits an equation into substrate and product name lists,
// pulling off the trailing reversibility tag and expanding leading
// stoichiometric coefficients into repetition.
func extractEquation(desc string) (substrates, products []string, reversible rtypes.Reversibility, rxnText string) {
	reversible = rtypes.UnknownReversibility
	if m := reversibleRe.FindString(desc); m != "" {
		desc = strings.TrimSpace(strings.Replace(desc, m, "", 1))
		if tag := strings.Trim(strings.TrimSpace(m), "{}"); tag != "" {
			if r := rtypes.Reversibility(tag); r.Valid() {
				reversible = r
			}
		}
	}

	for _, fix := range nadFixes {
		desc = strings.ReplaceAll(desc, fix[0], fix[1])
	}

	lhs, rhs, _ := strings.Cut(desc, " = ")
	substrates = splitParticipants(lhs)
	products = splitParticipants(rhs)
	return substrates, products, reversible, desc
}

// splitParticipants splits one equation side at " + " and expands leading
// integer coefficients ("2 H2O") into repeated names.
func splitParticipants(side string) []string {
	var out []string
	for _, part := range strings.Split(side, " + ") {
		part = strings.TrimSuffix(strings.TrimSpace(part), " +")
		if part == "" {
			continue
		}
		if m := coefficientRe.FindStringSubmatch(part); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil && n > 0 {
				name := strings.TrimSpace(part[len(m[0]):])
				for i := 0; i < n; i++ {
					out = append(out, name)
				}
				continue
			}
		}
		out = append(out, part)
	}
	return out
}

func dedupe(in []rtypes.RawReaction) []rtypes.RawReaction {
	seen := map[string]bool{}
	out := make([]rtypes.RawReaction, 0, len(in))
	for _, r := range in {
		key := r.ECNumber + "|" + r.RxnText + "|" + string(r.Reversible) + "|" +
			strconv.FormatBool(r.Natural) + "|" + r.Organism
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// dropTranslocases removes EC class 7 entries, which describe transport
// rather than chemistry.
func dropTranslocases(in []rtypes.RawReaction) []rtypes.RawReaction {
	out := in[:0]
	for _, r := range in {
		if strings.HasPrefix(r.ECNumber, "7.") {
			continue
		}
		out = append(out, r)
	}
	return out
}
