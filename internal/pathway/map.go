// Package pathway provides a curated gene-to-pathway lookup table used to
// derive pathway evidence when a data source returns only gene associations.
package pathway

import (
	"sort"
)

// SentinelPathway is returned when no input gene maps to a known pathway,
// so downstream overlap computations never see an empty pathway set.
const SentinelPathway = "General cellular signaling"

// maxGenesConsidered caps how many genes contribute pathways; disease gene
// lists arrive ranked by association strength, so the head carries the signal.
const maxGenesConsidered = 30

// maxPathwaysReturned caps the inferred pathway set size.
const maxPathwaysReturned = 20

// genePathways is a curated gene → pathway mapping from KEGG/Reactome
// knowledge. Lookup only, never mutated.
var genePathways = map[string][]string{
	// Signaling
	"TP53":   {"p53 signaling", "Apoptosis", "Cell cycle"},
	"EGFR":   {"EGFR signaling", "MAPK signaling", "PI3K-Akt signaling"},
	"KRAS":   {"MAPK signaling", "PI3K-Akt signaling", "RAS signaling"},
	"PIK3CA": {"PI3K-Akt signaling", "mTOR signaling"},
	"PTEN":   {"PI3K-Akt signaling", "mTOR signaling", "Apoptosis"},
	"BRAF":   {"MAPK signaling", "RAS-RAF-MEK signaling"},
	"MYC":    {"Cell cycle", "Apoptosis", "Transcription regulation"},
	"AKT1":   {"PI3K-Akt signaling", "mTOR signaling", "Survival signaling"},
	"MTOR":   {"mTOR signaling", "Autophagy", "Protein synthesis"},

	// Inflammation
	"TNF":   {"TNF signaling", "NF-kB signaling", "Cytokine signaling"},
	"IL6":   {"JAK-STAT signaling", "IL-6 signaling", "Cytokine signaling"},
	"IL1B":  {"Inflammasome signaling", "NF-kB signaling", "Cytokine signaling"},
	"NFKB1": {"NF-kB signaling", "Inflammatory response"},
	"STAT3": {"JAK-STAT signaling", "IL-6 signaling"},
	"PTGS2": {"Arachidonic acid metabolism", "Prostaglandin synthesis"},

	// Metabolism
	"PRKAA1": {"AMPK signaling", "Metabolic regulation"},
	"HMGCR":  {"Cholesterol biosynthesis", "Mevalonate pathway"},
	"PPARG":  {"Adipogenesis", "Lipid metabolism", "Insulin signaling"},
	"INSR":   {"Insulin signaling", "PI3K-Akt signaling"},

	// Neurological
	"APP":   {"Amyloid processing", "Neurodegeneration"},
	"MAPT":  {"Tau signaling", "Neurodegeneration", "Microtubule dynamics"},
	"SNCA":  {"Alpha-synuclein aggregation", "Dopamine signaling"},
	"LRRK2": {"Autophagy-lysosomal pathway", "Mitophagy"},
	"GBA":   {"Lysosomal function", "Sphingolipid metabolism"},
	"HTT":   {"Ubiquitin-proteasome system", "Neurodegeneration"},

	// Apoptosis
	"BCL2":  {"Apoptosis", "Mitochondrial apoptosis"},
	"BAX":   {"Apoptosis", "Mitochondrial apoptosis"},
	"CASP3": {"Apoptosis", "Caspase cascade"},
	"CASP8": {"Apoptosis", "Extrinsic apoptosis"},

	// Cell cycle
	"CDKN2A": {"Cell cycle arrest", "p53 signaling"},
	"CDK4":   {"Cell cycle", "G1/S transition"},
	"RB1":    {"Cell cycle", "Tumor suppression"},
	"BRCA1":  {"DNA repair", "Cell cycle checkpoint"},
	"BRCA2":  {"DNA repair", "Homologous recombination"},

	// Immune
	"IFNG":  {"Interferon signaling", "JAK-STAT signaling"},
	"IL2":   {"T cell signaling", "Cytokine signaling"},
	"PDCD1": {"Immune checkpoint", "T cell exhaustion"},
	"CD274": {"Immune checkpoint", "PD-L1 signaling"},
	"TLR4":  {"Toll-like receptor signaling", "NF-kB signaling", "Innate immunity"},
}

// PathwaysFor maps a ranked gene list to the union of known pathways for
// those genes. Genes absent from the table contribute nothing. The result
// is sorted so set-equal inputs yield identical output regardless of input
// order. An empty union is substituted with the sentinel pathway.
func PathwaysFor(genes []string) []string {
	seen := make(map[string]bool)

	limit := len(genes)
	if limit > maxGenesConsidered {
		limit = maxGenesConsidered
	}

	for _, gene := range genes[:limit] {
		for _, p := range genePathways[gene] {
			seen[p] = true
		}
	}

	if len(seen) == 0 {
		return []string{SentinelPathway}
	}

	pathways := make([]string, 0, len(seen))
	for p := range seen {
		pathways = append(pathways, p)
	}
	sort.Strings(pathways)

	if len(pathways) > maxPathwaysReturned {
		pathways = pathways[:maxPathwaysReturned]
	}
	return pathways
}

// Known reports whether the table has an entry for the given gene symbol
func Known(gene string) bool {
	_, ok := genePathways[gene]
	return ok
}
