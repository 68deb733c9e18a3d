package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testSystem = "https://fhir.diz.uni-marburg.de/sid/condition-id"

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

// exportXML builds a stored export row with one diagnosis report
func exportXML(schemaVersion, meldungID, code, date string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<ADT_GEKID Schema_Version="%s">
  <Menge_Patient>
    <Patient>
      <Patienten_Stammdaten Patient_ID="0001"/>
      <Menge_Meldung>
        <Meldung Meldung_ID="%s" Melder_ID="TEST">
          <Diagnose Tumor_ID="1">
            <Primaertumor_ICD_Code>%s</Primaertumor_ICD_Code>
            <Diagnosedatum>%s</Diagnosedatum>
          </Diagnose>
        </Meldung>
      </Menge_Meldung>
    </Patient>
  </Menge_Patient>
</ADT_GEKID>`, schemaVersion, meldungID, code, date)
}

type fixtureExport struct {
	id           int
	exportiertAm string
}

type fixtureMeldung struct {
	id          int
	patientID   string
	tumorID     string
	meldeanlass string
	extern      int
}

type fixtureRow struct {
	id      int
	meldung int
	export  int
	typ     int
	version interface{}
	xml     string
}

// onkostarFixture covers the filters of the condition query:
//   - patient 1 tumour 1: two versions, the latest changes C17.1 to C18.0
//   - patient 1 tumour 2: deleted export only
//   - patient 2 tumour 1: extern diagnosis
//   - patient 3 tumour 1: histology report
//   - patient 4 tumour 1: exported after 2024-06-01
//   - patient 5 tumour 1: diagnosis in 2022
//   - patient 6 tumour 1: export without version
var onkostarFixture = struct {
	exports   []fixtureExport
	meldungen []fixtureMeldung
	rows      []fixtureRow
}{
	exports: []fixtureExport{
		{id: 1, exportiertAm: "2024-02-01"},
		{id: 2, exportiertAm: "2024-03-01"},
		{id: 3, exportiertAm: "2024-07-01"},
	},
	meldungen: []fixtureMeldung{
		{id: 10, patientID: "1", tumorID: "1", meldeanlass: "diagnose"},
		{id: 11, patientID: "1", tumorID: "2", meldeanlass: "diagnose"},
		{id: 12, patientID: "2", tumorID: "1", meldeanlass: "diagnose", extern: 1},
		{id: 13, patientID: "3", tumorID: "1", meldeanlass: "histologie_zytologie"},
		{id: 14, patientID: "4", tumorID: "1", meldeanlass: "diagnose"},
		{id: 15, patientID: "5", tumorID: "1", meldeanlass: "diagnose"},
		{id: 16, patientID: "6", tumorID: "1", meldeanlass: "diagnose"},
	},
	rows: []fixtureRow{
		{id: 100, meldung: 10, export: 1, version: 1, xml: exportXML("2.2.3", "TEST100", "C17.1", "15.01.2024")},
		{id: 101, meldung: 10, export: 2, version: 2, xml: exportXML("3.0.0", "TEST101", "C18.0", "15.01.2024")},
		{id: 102, meldung: 11, export: 2, typ: -1, version: 1, xml: exportXML("3.0.0", "TEST102", "C50.1", "01.02.2024")},
		{id: 103, meldung: 12, export: 2, version: 1, xml: exportXML("3.0.0", "TEST103", "C61", "03.03.2024")},
		{id: 104, meldung: 13, export: 2, version: 1, xml: exportXML("3.0.0", "TEST104", "C34.1", "04.04.2024")},
		{id: 105, meldung: 14, export: 3, version: 1, xml: exportXML("3.0.0", "TEST105", "C73", "05.05.2024")},
		{id: 106, meldung: 15, export: 2, version: 1, xml: exportXML("3.0.0", "TEST106", "C64", "06.06.2022")},
		{id: 107, meldung: 16, export: 2, version: nil, xml: exportXML("3.0.0", "TEST107", "C25.0", "07.07.2024")},
	},
}

// insertFixture loads onkostarFixture into a database created by the schema runner
func insertFixture(t *testing.T, db *sqlx.DB) {
	t.Helper()
	ctx := context.Background()

	for _, e := range onkostarFixture.exports {
		_, err := db.ExecContext(ctx, db.Rebind(`INSERT INTO lkr_export (id, exportiert_am) VALUES (?, ?)`), e.id, e.exportiertAm)
		require.NoError(t, err)
	}
	for _, m := range onkostarFixture.meldungen {
		_, err := db.ExecContext(ctx,
			db.Rebind(`INSERT INTO lkr_meldung (id, patient_id, tumor_id, meldeanlass, extern) VALUES (?, ?, ?, ?, ?)`),
			m.id, m.patientID, m.tumorID, m.meldeanlass, m.extern)
		require.NoError(t, err)
	}
	for _, r := range onkostarFixture.rows {
		_, err := db.ExecContext(ctx,
			db.Rebind(`INSERT INTO lkr_meldung_export (id, lkr_meldung, lkr_export, typ, versionsnummer, xml_daten) VALUES (?, ?, ?, ?, ?, ?)`),
			r.id, r.meldung, r.export, r.typ, r.version, r.xml)
		require.NoError(t, err)
	}
}
