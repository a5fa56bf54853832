package domain

// Nationwide is the region name that selects every sub-region of every region.
const (
	Nationwide      = "nationwide"
	NationwideAlias = "전국"
)

// Tag fields added to every fetched record by the aggregation pipeline.
const (
	FieldRegionName    = "si_do_name"
	FieldSubRegionName = "sigungu_name"
)

type Region struct {
	Name       string
	Code       string
	SubRegions []SubRegion
}

type SubRegion struct {
	Code string
	Name string
}

// Target is one fetch unit: a sub-region together with the name of the region owning it.
type Target struct {
	RegionName string
	SubRegion  SubRegion
}

func IsNationwide(name string) bool {
	return name == Nationwide || name == NationwideAlias
}
