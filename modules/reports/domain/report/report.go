package report

import (
	"fmt"
	"strings"
)

// Type selects which portal report a pipeline run processes.
type Type string

const (
	General Type = "general"
	Return  Type = "return"
)

func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case General:
		return General, nil
	case Return:
		return Return, nil
	}
	return "", fmt.Errorf("invalid report type %q (expected general|return)", s)
}

// Mode is the load policy applied against the destination table.
type Mode string

const (
	// Full discards the destination table's contents before insert.
	Full Mode = "full"
	// Incremental replaces only the trailing execution-date window covered by
	// the batch.
	Incremental Mode = "incremental"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Full:
		return Full, nil
	case Incremental:
		return Incremental, nil
	}
	return "", fmt.Errorf("invalid run mode %q (expected full|incremental)", s)
}

const (
	// ColExecutionDate is the canonical execution-date column, the anchor of
	// the business key and of incremental cleanup.
	ColExecutionDate = "DATA_EXECUCAO"
	// ColExtractedAt is the audit timestamp stamped on every record at
	// normalization time; the recency tiebreaker for deduplication.
	ColExtractedAt = "DATA_EXTRACAO"
)

// ExecutionDateAliases are the header spellings the portal has been seen using
// for the execution-date column, checked after name normalization.
var ExecutionDateAliases = []string{"DATA EXECUCAO", "Data execucao"}

// Crew-code substrings driving the derived columns.
const (
	SouthernCrewMarker = "PEL"
	HighVoltageMarker  = "A0"

	RegionSouth   = "SUL"
	RegionNorth   = "NORTE"
	GroupHigh     = "AT"
	GroupLow      = "BT"
	ColRegion     = "REGIONAL"
	ColGroup      = "GRUPO"
	ColCrewUpper  = "EQUIPE"
)

// ColumnKind is the storage type of a canonical column.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindDate
	KindTime
	KindTimestamp
)

// Definition fixes everything report-type-specific about a pipeline run: where
// the raw files land, how to recognise their headers, which columns are
// irrelevant, and what identifies a logical record.
type Definition struct {
	Type  Type
	Table string

	// FilePattern matches the raw exports inside the downloads directory.
	FilePattern string
	// KnownColumns drive header realignment when exports carry preamble noise.
	KnownColumns []string
	// DropColumns are removed after name normalization when present.
	DropColumns []string
	// TimeColumns are parsed as time-of-day (normalized, pre-uppercase names).
	TimeColumns []string
	// DedupKeys is the business key, in final canonical (uppercase) names.
	DedupKeys []string
}

var definitions = map[Type]Definition{
	General: {
		Type:        General,
		Table:       "general_reports",
		FilePattern: "relatorio_prot_geral*.csv",
		KnownColumns: []string{
			"UC / MD",
			"Status",
			"Motivo nao baixado",
		},
		DropColumns: []string{
			"Motivo nao baixado",
			"Regional",
			"Empresa",
			"Sit deixada",
			"Fiscal",
			"tipo_servico_comercial",
			"obs_at",
			"RS Entrada",
			"Lancado por",
			"Data lancado",
			"Hora",
		},
		TimeColumns: []string{
			"Hora inicio servico",
			"Hora fim servico",
		},
		DedupKeys: []string{"UC / MD", ColExecutionDate, "COD", "TOI", ColCrewUpper},
	},
	Return: {
		Type:        Return,
		Table:       "return_reports",
		FilePattern: "retorno*.csv",
		KnownColumns: []string{
			"REGIONAL",
			"UC / MD",
			"TIPO SERVICO",
			"DATA EXECUCAO",
			"CODIGO",
		},
		DropColumns: []string{
			"REGIONAL",
			"TIPO SERVICO",
			"FISCAL",
			"EMPRESA",
			"DATA ENTREGA",
			"RETORNO DE",
		},
		DedupKeys: []string{"UC / MD", ColExecutionDate, "CODIGO", "TOI", ColCrewUpper},
	},
}

func ForType(t Type) Definition {
	return definitions[t]
}

// StorageKind maps a final canonical column name onto its destination type.
// Date columns are recognised the same way the normalizer recognises them.
func (d Definition) StorageKind(col string) ColumnKind {
	if col == ColExtractedAt {
		return KindTimestamp
	}
	for _, tc := range d.TimeColumns {
		if strings.EqualFold(tc, col) {
			return KindTime
		}
	}
	if strings.Contains(strings.ToUpper(col), "DATA") {
		return KindDate
	}
	return KindText
}
