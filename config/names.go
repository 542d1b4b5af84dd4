package config

import "unicode/utf8"

// maxFileName keeps generated names well below file system limits.
const maxFileName = 200

func fileNameOrDefault(name string) string {
	for len(name) > maxFileName {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	if name == "" {
		return "_bad_file_name_"
	}
	return name
}
