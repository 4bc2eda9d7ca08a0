package preferences

// Definition describes one preference key. An empty AllowedValues slice means
// any text is accepted.
type Definition struct {
	Key           string
	AllowedValues []string
}

var registry = map[string][]Definition{}

// Register installs an application's preference definitions. Called from init
// only; the registry is read-only afterwards.
func Register(application string, defs []Definition) {
	registry[application] = defs
}

func lookup(application, key string) (*Definition, bool) {
	defs, ok := registry[application]
	if !ok {
		return nil, false
	}
	for i := range defs {
		if defs[i].Key == key {
			return &defs[i], true
		}
	}
	return nil, false
}

// Applications returns the registered application names.
func Applications() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

const ApplicationPOS = "pos"

var deliveryMethods = []string{"upload_file", "api", "sftp", "email"}

func init() {
	Register(ApplicationPOS, []Definition{
		{Key: "send_method", AllowedValues: deliveryMethods},
		{Key: "receiving_method", AllowedValues: deliveryMethods},
		{Key: "routing_method", AllowedValues: []string{"by_column", "by_file"}},
		{Key: "manufacturer_part_number_prefix_removal", AllowedValues: []string{"true", "false"}},
		{Key: "manufacturer_column"},
	})
}
