package config

import (
	"context"
	"fmt"

	"gopkg.in/ini.v1"
)

// Profile is one section of the credentials file.
type Profile struct {
	Name       string
	ServiceKey string
	Endpoint   string
}

type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, name string) (*Profile, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

// NewRegistry loads an ini file such as:
//
//	[DEFAULT]
//	service_key = ...
//	endpoint    = https://apis.data.go.kr/1613000/RTMSDataSvcAptTrade
func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles from %s: %w", path, err)
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if section.HasKey("service_key") {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetProfile(_ context.Context, name string) (*Profile, error) {
	section, err := cr.cfg.GetSection(name)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found", name)
	}

	key := section.Key("service_key").String()
	if key == "" {
		return nil, fmt.Errorf("profile %s has no service_key", name)
	}

	return &Profile{
		Name:       name,
		ServiceKey: key,
		Endpoint:   section.Key("endpoint").String(),
	}, nil
}
