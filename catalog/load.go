package catalog

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadCompounds ingests the compound mapping file. Three-column rows are
// `index \t id \t name`; two-column rows are `id \t name` with the id
// doubling as the declared index. Compounds receive dense ordinals in file
// order regardless of the declared index.
func (c *Catalog) LoadCompounds(path string) error {
	return eachLine(path, func(fields []string) error {
		var id int
		var name string
		var err error
		switch len(fields) {
		case 3:
			id, err = strconv.Atoi(fields[1])
			name = fields[2]
		case 2:
			id, err = strconv.Atoi(fields[0])
			name = fields[1]
		default:
			return fmt.Errorf("compound mapping: expected 2 or 3 columns, got %d", len(fields))
		}
		if err != nil {
			return fmt.Errorf("compound mapping: bad id: %w", err)
		}
		c.AddCompound(id, name)
		return nil
	})
}

// LoadIndications ingests the indication mapping file
// (`_ \t compoundID \t name \t indicationID`). Indications are created on
// first sight; rows naming a compound id absent from the catalog fail.
func (c *Catalog) LoadIndications(path string) error {
	return eachLine(path, func(fields []string) error {
		if len(fields) < 4 {
			return fmt.Errorf("indication mapping: expected 4 columns, got %d", len(fields))
		}
		cid, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("indication mapping: bad compound id: %w", err)
		}
		cm, err := c.CompoundByID(cid)
		if err != nil {
			return err
		}

		ind, err := c.Indication(fields[3])
		if err != nil {
			ind = c.addEffect(KindIndication, fields[3], fields[2])
		}
		c.associate(cm, ind)
		return nil
	})
}

// LoadADRs ingests the adverse-reaction mapping file
// (`_ \t compoundOrdinal \t _ \t name \t adrID`). Unlike indications, the
// compound column is the dense ordinal, not the mapping id.
func (c *Catalog) LoadADRs(path string) error {
	return eachLine(path, func(fields []string) error {
		if len(fields) < 5 {
			return fmt.Errorf("ADR mapping: expected 5 columns, got %d", len(fields))
		}
		ci, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("ADR mapping: bad compound index: %w", err)
		}
		if ci < 0 || ci >= len(c.Compounds) {
			return fmt.Errorf("ADR mapping: compound index %d out of range", ci)
		}
		cm := c.Compounds[ci]

		adr, err := c.ADR(fields[4])
		if err != nil {
			adr = c.addEffect(KindADR, fields[4], fields[3])
		}
		c.associate(cm, adr)
		return nil
	})
}

// LoadPathways ingests the pathway membership file
// (`pathwayID \t proteinID...`). Rows with no proteins are skipped.
// Protein ids not registered in the catalog are ignored.
//
// indicationPathways, when non-empty, names an association file
// (`pathwayID \t indicationID...`) linking pathways to indications.
func (c *Catalog) LoadPathways(path, indicationPathways string) error {
	byPathway := make(map[string][]string)
	if indicationPathways != "" {
		err := eachLine(indicationPathways, func(fields []string) error {
			byPathway[fields[0]] = fields[1:]
			return nil
		})
		if err != nil {
			return err
		}
	}

	return eachLine(path, func(fields []string) error {
		if len(fields) < 2 {
			return nil
		}
		pw := c.AddPathway(fields[0])
		for _, pid := range fields[1:] {
			pi, ok := c.proteinByID[pid]
			if !ok {
				continue
			}
			pw.Proteins = append(pw.Proteins, pi)
			c.Proteins[pi].Pathways = append(c.Proteins[pi].Pathways, pw.Index)
		}

		for _, indID := range byPathway[pw.ID] {
			ind, err := c.Indication(indID)
			if err != nil {
				continue
			}
			pw.Effects = append(pw.Effects, ind.Index)
			ind.Pathways = append(ind.Pathways, pw.Index)
		}
		return nil
	})
}

// LoadEffectProteins ingests indication-protein associations
// (`indicationID \t gene;gene;...`). Genes not registered as proteins and
// indication ids not in the catalog are ignored.
func (c *Catalog) LoadEffectProteins(path string) error {
	return eachLine(path, func(fields []string) error {
		if len(fields) < 2 {
			return nil
		}
		ind, err := c.Indication(fields[0])
		if err != nil {
			return nil
		}
		for _, gene := range strings.Split(fields[1], ";") {
			if pi, ok := c.proteinByID[gene]; ok {
				ind.Proteins = append(ind.Proteins, pi)
			}
		}
		return nil
	})
}

// pathogenGroups are the top-level disease groups classified as
// pathogen-caused.
var pathogenGroups = map[string]bool{"C01": true, "C02": true, "C03": true}

// LoadDiseaseGroups ingests the top-level disease grouping file
// (`indicationID \t groupID`) and resolves every indication's pathogen flag:
// indications in groups C01-C03 become pathogen-positive, all others
// human-origin. Unknown indication ids are ignored.
func (c *Catalog) LoadDiseaseGroups(path string) error {
	err := eachLine(path, func(fields []string) error {
		if len(fields) < 2 || !pathogenGroups[fields[1]] {
			return nil
		}
		if ind, err := c.Indication(fields[0]); err == nil {
			ind.Pathogen = PathogenPositive
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, e := range c.Effects {
		if e.Kind == KindIndication && e.Pathogen == PathogenUnknown {
			e.Pathogen = PathogenHuman
		}
	}
	return nil
}

// IndicationsByPathogen returns indications matching the pathogen flag.
// LoadDiseaseGroups must have run; with no grouping loaded every flag is
// PathogenUnknown and the result is empty.
func (c *Catalog) IndicationsByPathogen(p Pathogen) []*Effect {
	var out []*Effect
	for _, e := range c.Effects {
		if e.Kind == KindIndication && e.Pathogen == p {
			out = append(out, e)
		}
	}
	return out
}

// eachLine streams the tab-separated lines of path into fn, skipping blank
// lines.
func eachLine(path string, fn func(fields []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := fn(strings.Split(line, "\t")); err != nil {
			return err
		}
	}
	return sc.Err()
}
