package persistence

import (
	"testing"

	"github.com/covidtrack/registry/internal/domain/patient"
	"github.com/stretchr/testify/require"
)

var storedFixture = []patient.StoredFields{
	{FirstName: "Глеб", LastName: "Голубин", BirthDate: "1978-01-31", Phone: "+7(949)505-22-56", DocumentType: "Водительские права", DocumentID: "78 15 812581", Status: "Болен"},
	{FirstName: "Тамби", LastName: "Масаев", BirthDate: "1952-02-27", Phone: "+7(940)246-24-11", DocumentType: "Загран. паспорт", DocumentID: "71 5874634", Status: "Болен"},
	{FirstName: "Дмитрий", LastName: "Кузнецов", BirthDate: "1993-05-17", Phone: "+7(942)102-19-95", DocumentType: "Паспорт РФ", DocumentID: "37 03 833248", Status: "Выздоровел"},
	{FirstName: "Прохор", LastName: "Шаляпин", BirthDate: "1970-07-30", Phone: "+7(950)298-64-59", DocumentType: "Паспорт РФ", DocumentID: "37 52 462732", Status: "Болен"},
	{FirstName: "Федор", LastName: "Овальный", BirthDate: "1978-09-11", Phone: "+7(915)556-41-62", DocumentType: "Водительские права", DocumentID: "74 14 292010", Status: "Умер"},
	{FirstName: "Александра", LastName: "Бортич", BirthDate: "1985-12-09", Phone: "+7(937)533-85-16", DocumentType: "Загран. паспорт", DocumentID: "45 0769112", Status: "Болен"},
}

func fixturePatients(t *testing.T) []*patient.Patient {
	t.Helper()
	patients := make([]*patient.Patient, 0, len(storedFixture))
	for _, s := range storedFixture {
		p, err := patient.Restore(s)
		require.NoError(t, err)
		patients = append(patients, p)
	}
	return patients
}

func renderAll(patients []*patient.Patient) []string {
	out := make([]string, len(patients))
	for i, p := range patients {
		out[i] = p.String()
	}
	return out
}
