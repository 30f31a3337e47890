package core

// RenderSettings controls which parts of the lighting pipeline run for a view.
type RenderSettings struct {
	EnableLighting bool   `yaml:"enable_lighting"`
	EnableShadows  bool   `yaml:"enable_shadows"`
	EnableSkybox   bool   `yaml:"enable_skybox"`
	MSAACount      uint32 `yaml:"msaa_count"`
}

// DefaultRenderSettings returns the full-featured single-sample configuration.
func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		EnableLighting: true,
		EnableShadows:  true,
		EnableSkybox:   true,
		MSAACount:      1,
	}
}
