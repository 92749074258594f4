package structured

// Row models for the tables the intake pipeline populates. This package only
// reads them; AutoMigrate is used by tests.

// ECNNotice is a row of ecn_notices.
type ECNNotice struct {
	ID                uint   `gorm:"primaryKey"`
	DocID             string `gorm:"column:doc_id;size:128;index"`
	NoticeNumber      string `gorm:"size:64"`
	ProductCode       string `gorm:"size:64;index"`
	ProductName       string `gorm:"size:255"`
	ChangeDescription string `gorm:"type:text"`
}

// TableName implements gorm's tabler.
func (ECNNotice) TableName() string { return "ecn_notices" }

// ECNApplication is a row of ecn_applications.
type ECNApplication struct {
	ID                uint   `gorm:"primaryKey"`
	DocID             string `gorm:"column:doc_id;size:128;index"`
	ApplicationNumber string `gorm:"size:64"`
	ProductCode       string `gorm:"size:64;index"`
	ProductName       string `gorm:"size:255"`
	Reason            string `gorm:"type:text"`
}

// TableName implements gorm's tabler.
func (ECNApplication) TableName() string { return "ecn_applications" }

// ComplaintRecord is a row of complaint_records.
type ComplaintRecord struct {
	ID                   uint   `gorm:"primaryKey"`
	DocID                string `gorm:"column:doc_id;size:128;index"`
	ComplaintNumber      string `gorm:"size:64"`
	ProductCode          string `gorm:"size:64;index"`
	CustomerName         string `gorm:"size:255"`
	ComplaintDescription string `gorm:"type:text"`
}

// TableName implements gorm's tabler.
func (ComplaintRecord) TableName() string { return "complaint_records" }

// FMEARecord is a row of fmea_records.
type FMEARecord struct {
	ID          uint   `gorm:"primaryKey"`
	DocID       string `gorm:"column:doc_id;size:128;index"`
	CaseNumber  string `gorm:"size:64"`
	FailureMode string `gorm:"type:text"`
	Severity    *int
	Occurrence  *int
	Detection   *int
	RPN         *int `gorm:"column:rpn"`
}

// TableName implements gorm's tabler.
func (FMEARecord) TableName() string { return "fmea_records" }

// StructuredDocument is a row of structured_documents. ProductCodes and
// Keywords hold JSON arrays.
type StructuredDocument struct {
	ID            uint   `gorm:"primaryKey"`
	OriginalDocID string `gorm:"column:original_doc_id;size:128;index"`
	DocNumber     string `gorm:"size:64"`
	ProductCodes  string `gorm:"type:text"`
	Summary       string `gorm:"type:text"`
	Keywords      string `gorm:"type:text"`
}

// TableName implements gorm's tabler.
func (StructuredDocument) TableName() string { return "structured_documents" }

// TechnicalDocument is a row of technical_documents holding the extracted
// full text.
type TechnicalDocument struct {
	ID      uint   `gorm:"primaryKey"`
	DocID   string `gorm:"column:doc_id;size:128;index"`
	Content string `gorm:"type:longtext"`
}

// TableName implements gorm's tabler.
func (TechnicalDocument) TableName() string { return "technical_documents" }

// identifierTables carry a single product_code column.
var identifierTables = []any{&ECNNotice{}, &ECNApplication{}, &ComplaintRecord{}}
