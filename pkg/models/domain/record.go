package domain

// Raw field names returned by the apartment trade endpoint.
const (
	RawAptName        = "aptNm"
	RawAptSeq         = "aptSeq"
	RawAptDong        = "aptDong"
	RawBonbun         = "bonbun"
	RawBubun          = "bubun"
	RawBuildYear      = "buildYear"
	RawBuyerGbn       = "buyerGbn"
	RawCancelDay      = "cdealDay"
	RawCancelType     = "cdealType"
	RawDealAmount     = "dealAmount"
	RawDealDay        = "dealDay"
	RawDealMonth      = "dealMonth"
	RawDealYear       = "dealYear"
	RawDealingGbn     = "dealingGbn"
	RawAgentSggName   = "estateAgentSggNm"
	RawExclusiveArea  = "excluUseAr"
	RawFloor          = "floor"
	RawJibun          = "jibun"
	RawLandLeasehold  = "landLeaseholdGbn"
	RawRegisteredDate = "rgstDate"
	RawRoadName       = "roadNm"
	RawSggCode        = "sggCd"
	RawSellerGbn      = "slerGbn"
	RawUmdName        = "umdNm"
)

// TradeSchema lists the fields of an apartment trade record in response order.
var TradeSchema = []string{
	RawAptDong, RawAptName, RawAptSeq, RawBonbun, RawBubun, RawBuildYear, RawBuyerGbn,
	RawCancelDay, RawCancelType, RawDealAmount, RawDealDay, RawDealMonth, RawDealYear,
	RawDealingGbn, RawAgentSggName, RawExclusiveArea, RawFloor, RawJibun, RawLandLeasehold,
	RawRegisteredDate, RawRoadName, RawSggCode, RawSellerGbn, RawUmdName,
}

// Record is one raw transaction row; values are kept as the API's text.
type Record map[string]string

// Row is a record tagged with the region and sub-region it was fetched for.
type Row struct {
	RegionName    string
	SubRegionName string
	Record        Record
}

// Value resolves tag fields first, then raw record fields.
func (r Row) Value(field string) (string, bool) {
	switch field {
	case FieldRegionName:
		return r.RegionName, true
	case FieldSubRegionName:
		return r.SubRegionName, true
	}
	v, ok := r.Record[field]
	return v, ok
}

// UnifiedTable is the concatenation of every sub-region's fetch result, in fetch order.
type UnifiedTable struct {
	Rows   []Row
	schema []string
}

func NewUnifiedTable(schema []string, rows []Row) *UnifiedTable {
	s := make([]string, 0, len(schema)+2)
	s = append(s, FieldRegionName, FieldSubRegionName)
	s = append(s, schema...)
	return &UnifiedTable{Rows: rows, schema: s}
}

// Schema returns the tag fields followed by the fetcher's declared fields.
func (t *UnifiedTable) Schema() []string {
	out := make([]string, len(t.schema))
	copy(out, t.schema)
	return out
}

func (t *UnifiedTable) Len() int {
	return len(t.Rows)
}
