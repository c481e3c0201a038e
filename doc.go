// Package crudkit provides the generic Service layer that sits between the
// HTTP glue and the generic repository. Entity services embed Service and
// override the operations carrying business rules.
package crudkit
