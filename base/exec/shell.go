package exec

import "github.com/mattn/go-shellwords"

// SplitCommand splits a shell-style command line into argv, used by
// boldui-renderer to turn the configured spawn command into a
// program name and arguments suitable for Spawn.
func SplitCommand(line string) (name string, args []string, err error) {
	parts, err := shellwords.Parse(line)
	if err != nil {
		return "", nil, err
	}
	if len(parts) == 0 {
		return "", nil, nil
	}
	return parts[0], parts[1:], nil
}
