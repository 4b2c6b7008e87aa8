package embedding

// ONNXConfig locates the CLIP encoder models.
type ONNXConfig struct {
	ImageModelPath string
	TextModelPath  string
	Dimensions     int
	ImageSize      int
	MaxTokens      int
}

func (c ONNXConfig) withDefaults() ONNXConfig {
	if c.Dimensions <= 0 {
		c.Dimensions = 512
	}
	if c.ImageSize <= 0 {
		c.ImageSize = 224
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 77
	}
	return c
}
