package models

import (
	"fmt"
	"os"

	"sigcompare/internal/errors"

	"gopkg.in/yaml.v3"
)

// PatchConfig describes the 3D patch embedding
type PatchConfig struct {
	Size [3]int `yaml:"size,flow"`
	Grid [3]int `yaml:"grid,flow"`
}

// TransformerConfig holds the transformer encoder hyperparameters
type TransformerConfig struct {
	MLPDim               int     `yaml:"mlp_dim"`
	NumHeads             int     `yaml:"num_heads"`
	NumLayers            int     `yaml:"num_layers"`
	AttentionDropoutRate float64 `yaml:"attention_dropout_rate"`
	DropoutRate          float64 `yaml:"dropout_rate"`
}

// RegistrationConfig holds the hyperparameters of the 3D image-registration
// transformer. Channel tuples are fixed-size arrays so a copy never shares
// storage with the defaults.
type RegistrationConfig struct {
	Patches     PatchConfig       `yaml:"patches"`
	HiddenSize  int               `yaml:"hidden_size"`
	HiddenSize1 int               `yaml:"hidden_size1"`
	Transformer TransformerConfig `yaml:"transformer"`
	PatchSize   int               `yaml:"patch_size"`
	InChans     int               `yaml:"in_chans"`

	ConvFirstChannel  int    `yaml:"conv_first_channel"`
	ConvFirstChannel1 int    `yaml:"conv_first_channel1"`
	EncoderChannels   [3]int `yaml:"encoder_channels,flow"`
	EncoderChannels1  [4]int `yaml:"encoder_channels1,flow"`
	DownFactor        int    `yaml:"down_factor"`
	DownNum           int    `yaml:"down_num"`
	DownNum1          int    `yaml:"down_num1"`
	DecoderChannels   [5]int `yaml:"decoder_channels,flow"`
	DecoderChannels1  [5]int `yaml:"decoder_channels1,flow"`
	SkipChannels      [5]int `yaml:"skip_channels,flow"`

	NDims       int     `yaml:"n_dims"`
	NSkip       int     `yaml:"n_skip"`
	Dilation    int     `yaml:"dilation"`
	LSInitValue float64 `yaml:"ls_init_value"`
	NormLayer   string  `yaml:"norm_layer"` // empty means no normalization layer
	IfTransSkip bool    `yaml:"if_transskip"`
	IfConvSkip  bool    `yaml:"if_convskip"`
}

// DefaultRegistrationConfig returns the reference 3D registration hyperparameters
func DefaultRegistrationConfig() RegistrationConfig {
	return RegistrationConfig{
		Patches: PatchConfig{
			Size: [3]int{8, 8, 8},
			Grid: [3]int{8, 8, 8},
		},
		HiddenSize:  252,
		HiddenSize1: 33,
		Transformer: TransformerConfig{
			MLPDim:               3072,
			NumHeads:             12,
			NumLayers:            12,
			AttentionDropoutRate: 0.0,
			DropoutRate:          0.1,
		},
		PatchSize: 8,
		InChans:   2,

		ConvFirstChannel:  96,
		ConvFirstChannel1: 192,
		EncoderChannels:   [3]int{16, 32, 32},
		EncoderChannels1:  [4]int{16, 32, 64, 96},
		DownFactor:        2,
		DownNum:           2,
		DownNum1:          1,
		DecoderChannels:   [5]int{96, 48, 32, 32, 16},
		DecoderChannels1:  [5]int{96, 48, 32, 16, 16},
		SkipChannels:      [5]int{32, 32, 32, 32, 16},

		NDims:       3,
		NSkip:       5,
		Dilation:    1,
		LSInitValue: 1.0,
		NormLayer:   "",
		IfTransSkip: true,
		IfConvSkip:  true,
	}
}

// LoadRegistrationConfig overlays a YAML file on the defaults. Keys absent from
// the file keep their default values.
func LoadRegistrationConfig(path string) (RegistrationConfig, error) {
	config := DefaultRegistrationConfig()

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, errors.NotFound(fmt.Sprintf("registration config %s", path))
		}
		return config, errors.Wrapf(err, "failed to read registration config %s", path)
	}
	if err := yaml.Unmarshal(content, &config); err != nil {
		return DefaultRegistrationConfig(), errors.WithCode(errors.CodeConfigInvalid,
			fmt.Errorf("parse registration config %s: %w", path, err))
	}
	if err := config.Validate(); err != nil {
		return DefaultRegistrationConfig(), err
	}
	return config, nil
}

// Validate checks structural constraints between fields
func (c RegistrationConfig) Validate() error {
	if c.NDims != 2 && c.NDims != 3 {
		return errors.ConfigInvalid(fmt.Sprintf("n_dims must be 2 or 3, got %d", c.NDims))
	}
	if c.Transformer.NumHeads <= 0 || c.HiddenSize%c.Transformer.NumHeads != 0 {
		return errors.ConfigInvalid(fmt.Sprintf("hidden_size %d must be divisible by num_heads %d",
			c.HiddenSize, c.Transformer.NumHeads))
	}
	if c.NSkip < 0 || c.NSkip > len(c.SkipChannels) {
		return errors.ConfigInvalid(fmt.Sprintf("n_skip must be in [0, %d], got %d", len(c.SkipChannels), c.NSkip))
	}
	if r := c.Transformer.DropoutRate; r < 0 || r >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("dropout_rate must be in [0, 1), got %v", r))
	}
	if r := c.Transformer.AttentionDropoutRate; r < 0 || r >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("attention_dropout_rate must be in [0, 1), got %v", r))
	}
	if c.PatchSize <= 0 || c.InChans <= 0 || c.DownFactor <= 0 {
		return errors.ConfigInvalid("patch_size, in_chans and down_factor must be positive")
	}
	return nil
}

// YAML renders the record as a YAML document
func (c RegistrationConfig) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
