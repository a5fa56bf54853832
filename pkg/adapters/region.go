package adapters

import (
	"github.com/de-tools/realty-atlas/pkg/models/api"
	"github.com/de-tools/realty-atlas/pkg/models/domain"
)

// MapDomainRegionToAPI drops the sub-region list unless withSubRegions is set.
func MapDomainRegionToAPI(r domain.Region, withSubRegions bool) api.Region {
	out := api.Region{Name: r.Name, Code: r.Code}
	if withSubRegions {
		out.SubRegions = make([]api.SubRegion, len(r.SubRegions))
		for i, s := range r.SubRegions {
			out.SubRegions[i] = api.SubRegion{Code: s.Code, Name: s.Name}
		}
	}
	return out
}

func MapDomainRegionsToAPI(regions []domain.Region) []api.Region {
	out := make([]api.Region, len(regions))
	for i, r := range regions {
		out[i] = MapDomainRegionToAPI(r, false)
	}
	return out
}
