package main

import (
	"fmt"

	"github.com/finscope/finscope/pkg/aggregate"
	"github.com/finscope/finscope/pkg/filter"
	"github.com/finscope/finscope/pkg/models"
	"github.com/finscope/finscope/pkg/profile"
)

// filters collects the filter flags shared by every data subcommand.
type filters struct {
	profileName string
	startDate   string
	endDate     string
	accounts    []string
	exclude     []string
}

// toParams resolves the flags into filter parameters, starting from the
// named profile when one is given and letting explicit flags override it.
func (f *filters) toParams(profilesFile string) (filter.Params, error) {
	params, _, err := f.resolve(profilesFile)
	return params, err
}

// resolve is toParams plus the named profile itself, for commands whose
// display knobs (cumulative, calc) a profile can also carry.
func (f *filters) resolve(profilesFile string) (filter.Params, profile.Profile, error) {
	var params filter.Params
	var prof profile.Profile

	if f.profileName != "" {
		if profilesFile == "" {
			return filter.Params{}, prof, fmt.Errorf("--profile given but no profiles file configured")
		}
		profiles, err := profile.Load(profilesFile)
		if err != nil {
			return filter.Params{}, prof, err
		}
		prof, err = profiles.Get(f.profileName)
		if err != nil {
			return filter.Params{}, prof, err
		}
		params, err = prof.FilterParams()
		if err != nil {
			return filter.Params{}, prof, err
		}
	}

	if f.startDate != "" {
		start, err := models.ParseDate(f.startDate)
		if err != nil {
			return filter.Params{}, prof, fmt.Errorf("bad --start date: %w", err)
		}
		params.Start = start
	}
	if f.endDate != "" {
		end, err := models.ParseDate(f.endDate)
		if err != nil {
			return filter.Params{}, prof, fmt.Errorf("bad --end date: %w", err)
		}
		params.End = end
	}
	if len(f.accounts) > 0 {
		params.AccountIDs = f.accounts
	}
	if len(f.exclude) > 0 {
		params.ExcludeCategoryIDs = append(params.ExcludeCategoryIDs, f.exclude...)
	}
	return params, prof, nil
}

// cumulativeMode picks the series mode: an explicitly set flag wins, then a
// profile value, then the flag default.
func cumulativeMode(flagValue, flagSet bool, prof profile.Profile) bool {
	if !flagSet && prof.Cumulative != nil {
		return *prof.Cumulative
	}
	return flagValue
}

// calcMode picks the statistic the same way; anything but "average"
// means median.
func calcMode(flagValue string, flagSet bool, prof profile.Profile) aggregate.CalcType {
	v := flagValue
	if !flagSet && prof.Calc != "" {
		v = prof.Calc
	}
	if v == string(aggregate.CalcAverage) {
		return aggregate.CalcAverage
	}
	return aggregate.CalcMedian
}
