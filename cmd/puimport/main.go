// Command puimport loads a polling-unit registry file into the store.
//
//	puimport migrate
//	puimport check --file registry.csv
//	puimport run --file registry.csv [--clear-existing] [--dry-run] [--atomic]
package main

func main() {
	Execute()
}
