// Package clinical holds the read-only records triageboard receives from the
// clinical-data backend: patients, cohort listings, pages and detail records.
// The backend owns and mutates all of them; triageboard only displays them.
package clinical
