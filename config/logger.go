package config

import "github.com/spf13/viper"

// Logger logger config struct
type Logger struct {
	Level      int
	Format     string
	Output     string
	OutputFile string
}

func getLoggerConfig(v *viper.Viper) *Logger {
	v.SetDefault("logger.level", 4)
	return &Logger{
		Level:      v.GetInt("logger.level"),
		Format:     v.GetString("logger.format"),
		Output:     v.GetString("logger.output"),
		OutputFile: v.GetString("logger.output_file"),
	}
}
