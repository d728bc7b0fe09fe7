package external

import (
	"fmt"
	"sort"
	"strings"

	"github.com/drug-repurposing-server/internal/domain"
)

// curatedDisease is one hand-maintained disease entry used when the live
// APIs fail or return sparse data
type curatedDisease struct {
	name     string
	genes    []string
	pathways []string
	isRare   bool
}

// curatedGeneScore is the uniform association strength assigned to curated
// disease genes; curation implies solid but not source-scored evidence.
const curatedGeneScore = 0.7

var curatedDiseases = map[string]curatedDisease{
	"parkinson": {
		name:  "Parkinson's Disease",
		genes: []string{"SNCA", "LRRK2", "PRKN", "PINK1", "DJ1", "GBA", "MAPT", "UCHL1", "ATP13A2", "VPS35"},
		pathways: []string{"Dopamine signaling", "Autophagy-lysosomal pathway", "Mitophagy", "Neuroinflammation",
			"Ubiquitin-proteasome system", "Alpha-synuclein aggregation", "Mitochondrial dysfunction"},
	},
	"alzheimer": {
		name:  "Alzheimer's Disease",
		genes: []string{"APP", "PSEN1", "PSEN2", "APOE", "MAPT", "CLU", "CR1", "BIN1", "TREM2", "SORL1"},
		pathways: []string{"Amyloid processing", "Tau pathology", "Neuroinflammation", "Synaptic dysfunction",
			"Oxidative stress", "Autophagy", "MAPK signaling", "mTOR signaling"},
	},
	"als": {
		name:  "Amyotrophic Lateral Sclerosis (ALS)",
		genes: []string{"SOD1", "TARDBP", "FUS", "C9orf72", "OPTN", "UBQLN2", "VCP", "SQSTM1", "NEK1", "CHCHD10"},
		pathways: []string{"RNA processing", "Protein aggregation", "Autophagy", "Mitochondrial dysfunction",
			"Neuroinflammation", "Oxidative stress", "Axonal transport"},
		isRare: true,
	},
	"huntington": {
		name:  "Huntington's Disease",
		genes: []string{"HTT", "HAP1", "BDNF", "DARPP32", "CASP3", "BCL2", "HDAC4"},
		pathways: []string{"Ubiquitin-proteasome system", "Apoptosis", "Transcription dysregulation",
			"Mitochondrial dysfunction", "Autophagy", "MAPK signaling"},
		isRare: true,
	},
	"lupus": {
		name:  "Systemic Lupus Erythematosus",
		genes: []string{"TREX1", "DNASE1", "HMOX1", "IRF5", "STAT4", "BLK", "PTPN22", "TNFSF4", "IL10", "FCGR2A"},
		pathways: []string{"Type I interferon signaling", "TLR signaling", "NF-kB signaling", "B cell activation",
			"T cell dysregulation", "Complement system", "Autoimmunity"},
	},
	"crohn": {
		name:  "Crohn's Disease",
		genes: []string{"NOD2", "ATG16L1", "IL23R", "IRGM", "PTPN2", "LRRK2", "NKX2-3", "TNFSF15", "IL10", "STAT3"},
		pathways: []string{"NF-kB signaling", "Autophagy", "Innate immunity", "IL-23/IL-17 signaling",
			"Intestinal barrier function", "Inflammatory response", "Microbiome interaction"},
	},
	"multiple sclerosis": {
		name:  "Multiple Sclerosis",
		genes: []string{"HLA-DRB1", "IL7R", "IL2RA", "TNFRSF1A", "IRF8", "STAT3", "CLEC16A", "CYP27B1", "PTGER4"},
		pathways: []string{"T cell activation", "Th17 signaling", "Neuroinflammation", "Demyelination",
			"JAK-STAT signaling", "Vitamin D metabolism", "Autoimmunity"},
	},
	"breast cancer": {
		name:  "Breast Cancer",
		genes: []string{"BRCA1", "BRCA2", "TP53", "PIK3CA", "ERBB2", "ESR1", "CDH1", "PTEN", "AKT1", "MYC"},
		pathways: []string{"PI3K-Akt signaling", "MAPK signaling", "Hormone signaling", "DNA repair",
			"Cell cycle", "Apoptosis", "HER2 signaling"},
	},
	"pancreatic cancer": {
		name:  "Pancreatic Cancer",
		genes: []string{"KRAS", "TP53", "CDKN2A", "SMAD4", "BRCA2", "ATM", "PALB2", "GNAS", "RNF43", "TGFBR2"},
		pathways: []string{"KRAS signaling", "TGF-beta signaling", "Cell cycle", "DNA repair",
			"Hedgehog signaling", "Wnt signaling", "Apoptosis"},
	},
	"type 2 diabetes": {
		name:  "Type 2 Diabetes",
		genes: []string{"TCF7L2", "PPARG", "KCNJ11", "NOTCH2", "WFS1", "CDKAL1", "IGF2BP2", "SLC30A8", "HHEX", "INSR"},
		pathways: []string{"Insulin signaling", "AMPK signaling", "Beta cell function", "Adipogenesis",
			"Inflammatory response", "mTOR signaling", "Oxidative stress"},
	},
	"cystic fibrosis": {
		name:  "Cystic Fibrosis",
		genes: []string{"CFTR", "SLC9A3R1", "EZR", "MSN", "RDX", "DCTN4", "MBL2", "IFRD1", "TGFB1"},
		pathways: []string{"Ion channel function", "Chloride transport", "Inflammatory response",
			"Mucus production", "Autophagy", "ER stress", "Oxidative stress"},
		isRare: true,
	},
}

// CuratedDisease resolves a disease name against the curated fallback set
// using bidirectional substring matching. Keys are checked in sorted order
// so ambiguous queries always resolve to the same entry. Returns nil when
// no entry matches.
func CuratedDisease(diseaseName string) *domain.DiseaseRecord {
	lower := strings.ToLower(strings.TrimSpace(diseaseName))

	keys := make([]string, 0, len(curatedDiseases))
	for key := range curatedDiseases {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		d := curatedDiseases[key]
		if !strings.Contains(lower, key) && !strings.Contains(key, lower) {
			continue
		}

		scores := make(map[string]float64, len(d.genes))
		for _, g := range d.genes {
			scores[g] = curatedGeneScore
		}

		return &domain.DiseaseRecord{
			Name:        d.name,
			ID:          "CURATED_" + strings.ToUpper(strings.ReplaceAll(key, " ", "_")),
			Description: fmt.Sprintf("Curated data for %s", d.name),
			Genes:       append([]string{}, d.genes...),
			GeneScores:  scores,
			Pathways:    append([]string{}, d.pathways...),
			IsRare:      d.isRare,
			Source:      "Curated",
		}
	}

	return nil
}

// CuratedDrugCatalog returns the embedded approved-drug catalog used when
// ChEMBL is unreachable. Entries are copies, safe for the caller to mutate.
func CuratedDrugCatalog() []domain.DrugRecord {
	catalog := []domain.DrugRecord{
		{
			ID:         "DB00331",
			Name:       "Metformin",
			Indication: "Type 2 Diabetes",
			Targets:    []string{"PRKAA1", "PRKAA2", "ETFDH", "GPD1", "GPD2"},
			Pathways:   []string{"AMPK signaling", "mTOR signaling", "Oxidative phosphorylation", "Gluconeogenesis"},
			Mechanism:  "AMPK activator, inhibits mitochondrial complex I",
			Approved:   true,
		},
		{
			ID:         "DB00619",
			Name:       "Imatinib",
			Indication: "Chronic Myeloid Leukemia",
			Targets:    []string{"ABL1", "KIT", "PDGFRA", "PDGFRB"},
			Pathways:   []string{"BCR-ABL signaling", "PI3K-Akt signaling", "MAPK signaling"},
			Mechanism:  "Tyrosine kinase inhibitor (BCR-ABL, c-KIT, PDGFR)",
			Approved:   true,
		},
		{
			ID:         "DB01041",
			Name:       "Thalidomide",
			Indication: "Multiple Myeloma",
			Targets:    []string{"CRBN", "TNF", "VEGFA", "IL6"},
			Pathways:   []string{"TNF signaling", "Angiogenesis", "NF-kB signaling"},
			Mechanism:  "Cereblon E3 ligase modulator, anti-angiogenic, immunomodulatory",
			Approved:   true,
		},
		{
			ID:         "DB00203",
			Name:       "Sildenafil",
			Indication: "Erectile Dysfunction / Pulmonary Arterial Hypertension",
			Targets:    []string{"PDE5A", "PDE6A", "PDE6C"},
			Pathways:   []string{"cGMP-PKG signaling", "NO signaling", "Smooth muscle relaxation"},
			Mechanism:  "Phosphodiesterase-5 inhibitor, increases cGMP levels",
			Approved:   true,
		},
		{
			ID:         "DB00877",
			Name:       "Sirolimus (Rapamycin)",
			Indication: "Organ Transplant Rejection",
			Targets:    []string{"MTOR", "FKBP1A"},
			Pathways:   []string{"mTOR signaling", "PI3K-Akt signaling", "Autophagy", "Cell cycle"},
			Mechanism:  "mTORC1 inhibitor via FKBP12 binding",
			Approved:   true,
		},
		{
			ID:         "DB00945",
			Name:       "Aspirin",
			Indication: "Pain / Cardiovascular Prevention",
			Targets:    []string{"PTGS1", "PTGS2", "TBXA2R"},
			Pathways:   []string{"Arachidonic acid metabolism", "Platelet activation", "NF-kB signaling", "Prostaglandin synthesis"},
			Mechanism:  "Irreversible COX-1/COX-2 inhibitor, anti-inflammatory",
			Approved:   true,
		},
		{
			ID:         "DB00313",
			Name:       "Valproic Acid",
			Indication: "Epilepsy / Bipolar Disorder",
			Targets:    []string{"HDAC1", "HDAC2", "SCN1A"},
			Pathways:   []string{"Histone deacetylation", "GABA signaling", "Wnt signaling", "Apoptosis"},
			Mechanism:  "HDAC inhibitor and sodium channel modulator",
			Approved:   true,
		},
		{
			ID:         "DB01234",
			Name:       "Dexamethasone",
			Indication: "Inflammatory Conditions / Immunosuppression",
			Targets:    []string{"NR3C1", "ANXA1", "POMC"},
			Pathways:   []string{"Glucocorticoid signaling", "NF-kB signaling", "JAK-STAT signaling", "Cytokine signaling"},
			Mechanism:  "Glucocorticoid receptor agonist, broad immunosuppression",
			Approved:   true,
		},
		{
			ID:         "DB00207",
			Name:       "Azithromycin",
			Indication: "Bacterial Infections",
			Targets:    []string{"RPLP0", "RPL22"},
			Pathways:   []string{"Protein synthesis inhibition", "NF-kB signaling", "Autophagy"},
			Mechanism:  "Macrolide antibiotic, also has immunomodulatory effects",
			Approved:   true,
		},
		{
			ID:         "DB01611",
			Name:       "Hydroxychloroquine",
			Indication: "Malaria / Rheumatoid Arthritis / Lupus",
			Targets:    []string{"TLR7", "TLR9", "CXCL10"},
			Pathways:   []string{"Toll-like receptor signaling", "Lysosomal acidification", "Autophagy", "Cytokine production"},
			Mechanism:  "Lysosomal pH modifier, TLR7/9 antagonist",
			Approved:   true,
		},
		{
			ID:         "DB01356",
			Name:       "Lithium",
			Indication: "Bipolar Disorder",
			Targets:    []string{"GSK3B", "INPP1", "IMPA1"},
			Pathways:   []string{"Wnt signaling", "GSK3 signaling", "Neuroprotection", "Autophagy"},
			Mechanism:  "GSK3-beta inhibitor, inositol depletion",
			Approved:   true,
		},
		{
			ID:         "DB00363",
			Name:       "Clozapine",
			Indication: "Treatment-Resistant Schizophrenia",
			Targets:    []string{"DRD2", "DRD4", "HTR2A", "HTR2C", "ADRA1A"},
			Pathways:   []string{"Dopamine signaling", "Serotonin signaling", "Neurotransmission"},
			Mechanism:  "Atypical antipsychotic, multi-receptor antagonist",
			Approved:   true,
		},
		{
			ID:         "DB01216",
			Name:       "Finasteride",
			Indication: "Benign Prostatic Hyperplasia / Male Pattern Baldness",
			Targets:    []string{"SRD5A1", "SRD5A2"},
			Pathways:   []string{"Androgen signaling", "Steroid hormone biosynthesis"},
			Mechanism:  "5-alpha reductase inhibitor, reduces DHT levels",
			Approved:   true,
		},
		{
			ID:         "DB01394",
			Name:       "Colchicine",
			Indication: "Gout / Familial Mediterranean Fever",
			Targets:    []string{"TUBA1A", "TUBB", "NLRP3"},
			Pathways:   []string{"Microtubule dynamics", "Inflammasome signaling", "Neutrophil migration", "IL-1B signaling"},
			Mechanism:  "Tubulin polymerization inhibitor, NLRP3 inflammasome inhibitor",
			Approved:   true,
		},
		{
			ID:         "DB00480",
			Name:       "Lenalidomide",
			Indication: "Multiple Myeloma / Myelodysplastic Syndromes",
			Targets:    []string{"CRBN", "IKZF1", "IKZF3", "TNF"},
			Pathways:   []string{"Cereblon-CRL4 pathway", "Immune modulation", "Angiogenesis"},
			Mechanism:  "Next-gen cereblon modulator (IMiD), degrades IKZF1/3",
			Approved:   true,
		},
		{
			ID:         "DB06273",
			Name:       "Tocilizumab",
			Indication: "Rheumatoid Arthritis / Cytokine Release Syndrome",
			Targets:    []string{"IL6R"},
			Pathways:   []string{"JAK-STAT signaling", "IL-6 signaling", "Cytokine storm"},
			Mechanism:  "IL-6 receptor monoclonal antibody blocker",
			Approved:   true,
		},
		{
			ID:         "DB11581",
			Name:       "Venetoclax",
			Indication: "Chronic Lymphocytic Leukemia / AML",
			Targets:    []string{"BCL2", "BCL2L1"},
			Pathways:   []string{"Apoptosis", "BCL2 family signaling", "Mitochondrial apoptosis"},
			Mechanism:  "BCL-2 selective inhibitor, restores apoptosis in cancer cells",
			Approved:   true,
		},
		{
			ID:         "DB00275",
			Name:       "Olmesartan",
			Indication: "Hypertension",
			Targets:    []string{"AGTR1"},
			Pathways:   []string{"Renin-angiotensin system", "MAPK signaling", "TGF-beta signaling"},
			Mechanism:  "AT1 receptor antagonist (ARB)",
			Approved:   true,
		},
		{
			ID:         "DB00482",
			Name:       "Celecoxib",
			Indication: "Arthritis / Pain",
			Targets:    []string{"PTGS2", "CA2"},
			Pathways:   []string{"Arachidonic acid metabolism", "Prostaglandin synthesis", "Apoptosis", "Wnt signaling"},
			Mechanism:  "Selective COX-2 inhibitor, also has anti-tumor properties",
			Approved:   true,
		},
		{
			ID:         "DB01076",
			Name:       "Atorvastatin",
			Indication: "Hypercholesterolemia / Cardiovascular Prevention",
			Targets:    []string{"HMGCR"},
			Pathways:   []string{"Cholesterol biosynthesis", "Mevalonate pathway", "NF-kB signaling", "Inflammation"},
			Mechanism:  "HMG-CoA reductase inhibitor, also anti-inflammatory pleiotropic effects",
			Approved:   true,
		},
	}

	out := make([]domain.DrugRecord, len(catalog))
	copy(out, catalog)
	return out
}

// rareDiseaseKeywords mark diseases commonly classified as rare or orphan
var rareDiseaseKeywords = []string{
	"rare", "orphan", "gaucher", "fabry", "pompe", "wilson", "huntington",
	"amyotrophic", "als", "cystic fibrosis", "duchenne", "niemann-pick",
	"tay-sachs", "familial mediterranean",
}

// IsRareDisease applies a keyword heuristic over the disease name and
// description. Curated entries carry an explicit flag; this covers records
// resolved from live sources.
func IsRareDisease(name, description string) bool {
	text := strings.ToLower(name + " " + description)
	for _, keyword := range rareDiseaseKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
