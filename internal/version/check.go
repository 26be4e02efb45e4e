package version

// Installed describes one package's installed version and declared
// dependencies, as seen by CheckAll.
type Installed struct {
	Version Version
	Deps    []Dependency
}

// Failure is one unmet dependency: Offender's Dep could not be satisfied
// by the installed set.
type Failure struct {
	Offender string
	Dep      Dependency
}

// CheckAll walks packages in the order given by order (the caller supplies
// this alongside the map since map iteration order is otherwise
// unspecified) and, for each package's dependencies in declared order,
// reports one Failure for every dependency whose named package is absent
// from packages, or present but failing Satisfies.
//
// CheckAll does not detect dependency cycles; it only checks per-edge
// satisfaction, matching the source behavior this algebra is ported from.
func CheckAll(order []string, packages map[string]Installed) []Failure {
	var failures []Failure
	for _, name := range order {
		pkg, ok := packages[name]
		if !ok {
			continue
		}
		for _, dep := range pkg.Deps {
			existing, ok := packages[dep.Name]
			if !ok {
				failures = append(failures, Failure{Offender: name, Dep: dep})
				continue
			}
			if !Satisfies(dep.Version, existing.Version, dep.Relation) {
				failures = append(failures, Failure{Offender: name, Dep: dep})
			}
		}
	}
	return failures
}
