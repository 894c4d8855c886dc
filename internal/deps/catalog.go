package deps

// Builtin returns the dependencies of the IndieBack backend, used when no
// manifest is configured.
func Builtin() *Manifest {
	m := &Manifest{
		Dependencies: []Descriptor{
			{
				// The cache project packages itself as lib_caching.
				Name:      "caching",
				Dir:       "cache",
				SourceURL: "https://github.com/lsmon/cache.git",
			},
			{
				Name:      "netpp",
				SourceURL: "https://github.com/lsmon/netpp.git",
				Defines:   map[string]string{"BUILD_TEST": "OFF"},
			},
			{
				Name:              "scheduler",
				SourceURL:         "https://github.com/lsmon/scheduler.git",
				CompilerOverrides: true,
			},
			{
				Name:      "cassandra",
				Dir:       "cassandra-cpp-driver",
				SourceURL: "https://github.com/lsmon/cassandra-cpp-driver.git",
				Install: Install{
					Mode: ModeDirect,
					Libraries: []string{
						"libcassandra.so.{version}",
						"libcassandra.so.2",
						"libcassandra.so",
					},
					Headers: "include",
				},
			},
		},
	}
	if err := m.normalize(); err != nil {
		panic("deps: invalid builtin catalog: " + err.Error())
	}
	return m
}
