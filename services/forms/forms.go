// Copyright (C) 2025 Ox-in-Chair (ohisee@ox-in-chair.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package forms defines the submission data model shared by the rule
// engine, the quality scorer, and the validation orchestrator.
//
// A submission is a tagged union: either a Non-Conformance Advice (NCA)
// or a Maintenance Job Card (MJC). The two share the free-text fields the
// quality pipeline inspects (description, root cause, corrective action)
// but differ in their structured flags. Keeping them as distinct structs
// behind the Submission interface lets field-presence checks stay
// exhaustive instead of duck-typed maps.
package forms

// FormType discriminates the submission union.
type FormType string

const (
	// FormNCA identifies a Non-Conformance Advice submission.
	FormNCA FormType = "nca"
	// FormMJC identifies a Maintenance Job Card submission.
	FormMJC FormType = "mjc"
)

// Valid reports whether the form type is one of the two known variants.
func (t FormType) Valid() bool {
	return t == FormNCA || t == FormMJC
}

// NCACategory classifies the non-conformance sub-type. The rule engine's
// minimum description lengths and conditional narrative requirements key
// off this value.
type NCACategory string

const (
	CategoryRawMaterial   NCACategory = "raw-material"
	CategoryFinishedGoods NCACategory = "finished-goods"
	CategoryWIP           NCACategory = "wip"
	CategoryIncident      NCACategory = "incident"
	CategoryOther         NCACategory = "other"
)

// Submission is the interface the pipeline consumes. Implementations are
// NCASubmission and MJCSubmission; Type is the discriminant.
type Submission interface {
	Type() FormType
	// Description returns the primary free-text field of the form.
	Description() string
	// RootCause returns the root-cause analysis text ("" when absent).
	RootCause() string
	// CorrectiveAction returns the corrective-action text ("" when absent).
	CorrectiveAction() string
}

// NCASubmission carries the fields of a Non-Conformance Advice form that
// the quality pipeline reads. Mutable until submitted; immutability after
// submission is the record store's concern, not this package's.
type NCASubmission struct {
	FormID             string      `json:"form_id,omitempty" yaml:"form_id,omitempty"`
	NCType             NCACategory `json:"nc_type" yaml:"nc_type"`
	NCDescription      string      `json:"nc_description" yaml:"nc_description"`
	ProductDescription string      `json:"nc_product_description,omitempty" yaml:"nc_product_description,omitempty"`
	SupplierName       string      `json:"supplier_name,omitempty" yaml:"supplier_name,omitempty"`
	SupplierBatch      string      `json:"supplier_wo_batch,omitempty" yaml:"supplier_wo_batch,omitempty"`

	// Quantity is a pointer so "not declared" and "declared zero" stay
	// distinguishable; the accuracy scorer penalizes the latter.
	Quantity     *float64 `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	QuantityUnit string   `json:"quantity_unit,omitempty" yaml:"quantity_unit,omitempty"`

	CrossContamination    bool   `json:"cross_contamination" yaml:"cross_contamination"`
	BackTrackingCompleted bool   `json:"back_tracking_completed" yaml:"back_tracking_completed"`
	DispositionRework     bool   `json:"disposition_rework" yaml:"disposition_rework"`
	ReworkInstruction     string `json:"rework_instruction,omitempty" yaml:"rework_instruction,omitempty"`

	RootCauseAnalysis string `json:"root_cause_analysis,omitempty" yaml:"root_cause_analysis,omitempty"`
	CorrectiveActText string `json:"corrective_action,omitempty" yaml:"corrective_action,omitempty"`
}

// Type implements Submission.
func (s *NCASubmission) Type() FormType { return FormNCA }

// Description implements Submission.
func (s *NCASubmission) Description() string { return s.NCDescription }

// RootCause implements Submission.
func (s *NCASubmission) RootCause() string { return s.RootCauseAnalysis }

// CorrectiveAction implements Submission.
func (s *NCASubmission) CorrectiveAction() string { return s.CorrectiveActText }

// Category returns the NC category, defaulting to "other" when unset so
// lookups against the category tables always resolve.
func (s *NCASubmission) Category() NCACategory {
	if s.NCType == "" {
		return CategoryOther
	}
	return s.NCType
}

// MaintenanceCategory classifies MJC work as reactive or planned.
type MaintenanceCategory string

const (
	MaintenanceReactive MaintenanceCategory = "reactive"
	MaintenancePlanned  MaintenanceCategory = "planned"
)

// MJCSubmission carries the fields of a Maintenance Job Card form that
// the quality pipeline reads.
type MJCSubmission struct {
	FormID               string              `json:"form_id,omitempty" yaml:"form_id,omitempty"`
	WorkDescription      string              `json:"description_required" yaml:"description_required"`
	MaintenanceCategory  MaintenanceCategory `json:"maintenance_category" yaml:"maintenance_category"`
	MachineEquipment     string              `json:"machine_equipment,omitempty" yaml:"machine_equipment,omitempty"`
	TemporaryRepair      bool                `json:"temporary_repair" yaml:"temporary_repair"`
	MaintenancePerformed string              `json:"maintenance_performed,omitempty" yaml:"maintenance_performed,omitempty"`

	RootCauseAnalysis string `json:"root_cause_analysis,omitempty" yaml:"root_cause_analysis,omitempty"`
	CorrectiveActText string `json:"corrective_action,omitempty" yaml:"corrective_action,omitempty"`
}

// Type implements Submission.
func (s *MJCSubmission) Type() FormType { return FormMJC }

// Description implements Submission.
func (s *MJCSubmission) Description() string { return s.WorkDescription }

// RootCause implements Submission.
func (s *MJCSubmission) RootCause() string { return s.RootCauseAnalysis }

// CorrectiveAction implements Submission.
func (s *MJCSubmission) CorrectiveAction() string { return s.CorrectiveActText }
