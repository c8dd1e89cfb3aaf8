package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHeader = "gbifID;family;genus;species;individualCount;decimalLatitude;decimalLongitude;eventDate;month;year;institutionCode"

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "occurrences.csv")
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Basic(t *testing.T) {
	path := writeCSV(t,
		testHeader,
		"101;Delphinidae;Tursiops;Tursiops truncatus;3;-21.5;165.2;2019-07-14;7;2019;IRD",
		"102;Delphinidae;Stenella;Stenella longirostris;;-22.1;166.8;2020-01-03;1;2020;OPT",
	)

	res, err := Load(path, Options{})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 0, res.Skipped)

	first := res.Records[0]
	assert.Equal(t, "101", first.ID)
	assert.Equal(t, "Delphinidae", first.Family)
	assert.Equal(t, "Tursiops truncatus", first.Species)
	require.NotNil(t, first.IndividualCount)
	assert.Equal(t, 3, *first.IndividualCount)
	assert.Equal(t, -21.5, first.Latitude)
	assert.Equal(t, 165.2, first.Longitude)
	assert.Equal(t, 7, first.Month)
	assert.Equal(t, 2019, first.Year)
	assert.Equal(t, "IRD", first.InstitutionCode)

	// absent individual count stays nil
	assert.Nil(t, res.Records[1].IndividualCount)
}

func TestLoad_PreservesRowOrder(t *testing.T) {
	path := writeCSV(t,
		testHeader,
		"3;F;G;S;1;-21;165;2019-01-01;1;2019;A",
		"1;F;G;S;1;-21;165;2019-01-01;1;2019;A",
		"2;F;G;S;1;-21;165;2019-01-01;1;2019;A",
	)

	res, err := Load(path, Options{})
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	assert.Equal(t, "3", res.Records[0].ID)
	assert.Equal(t, "1", res.Records[1].ID)
	assert.Equal(t, "2", res.Records[2].ID)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), Options{})
	require.Error(t, err)
	assert.False(t, IsSchemaErr(err))
}

func TestLoad_MissingColumn(t *testing.T) {
	path := writeCSV(t,
		"gbifID;family;genus;species;individualCount;decimalLongitude;eventDate;month;year;institutionCode",
		"101;F;G;S;1;165.2;2019-07-14;7;2019;IRD",
	)

	_, err := Load(path, Options{})
	require.Error(t, err)
	assert.True(t, IsSchemaErr(err))
	assert.Contains(t, err.Error(), "decimalLatitude")
}

func TestLoad_HeaderWithBOM(t *testing.T) {
	path := writeCSV(t,
		"\uFEFF"+testHeader,
		"101;Delphinidae;Tursiops;Tursiops truncatus;3;-21.5;165.2;2019-07-14;7;2019;IRD",
	)

	res, err := Load(path, Options{})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "101", res.Records[0].ID)
	assert.Equal(t, 0, res.Skipped)
}

func TestLoad_SkipsMalformedRows(t *testing.T) {
	path := writeCSV(t,
		testHeader,
		"101;Delphinidae;Tursiops;Tursiops truncatus;3;-21.5;165.2;2019-07-14;7;2019;IRD",
		"bad;row",
		"102;Delphinidae;Stenella;Stenella longirostris;2;not-a-number;166.8;2020-01-03;1;2020;OPT",
		"103;Delphinidae;Tursiops;Tursiops truncatus;1;-20.9;164.9;2021-05-20;5;2021;IRD",
	)

	res, err := Load(path, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, "101", res.Records[0].ID)
	assert.Equal(t, "103", res.Records[1].ID)
}

func TestLoad_SkipsOutOfRangeCoordinates(t *testing.T) {
	path := writeCSV(t,
		testHeader,
		"101;F;G;S;1;95.0;165.2;2019-07-14;7;2019;IRD",
		"102;F;G;S;1;-21.5;181.0;2019-07-14;7;2019;IRD",
		"103;F;G;S;1;-21.5;165.2;2019-07-14;7;2019;IRD",
	)

	res, err := Load(path, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, "103", res.Records[0].ID)
}

func TestLoad_CustomDelimiter(t *testing.T) {
	path := writeCSV(t,
		"gbifID,family,genus,species,individualCount,decimalLatitude,decimalLongitude,eventDate,month,year,institutionCode",
		"101,F,G,S,1,-21.5,165.2,2019-07-14,7,2019,IRD",
	)

	res, err := Load(path, Options{Delimiter: ','})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "101", res.Records[0].ID)
}

func TestLoad_HeaderCaseInsensitive(t *testing.T) {
	path := writeCSV(t,
		"GBIFID;Family;GENUS;Species;IndividualCount;DecimalLatitude;DecimalLongitude;EventDate;Month;Year;InstitutionCode",
		"101;F;G;S;1;-21.5;165.2;2019-07-14;7;2019;IRD",
	)

	res, err := Load(path, Options{})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "IRD", res.Records[0].InstitutionCode)
}

func TestLoad_Latin1Encoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.csv")
	// "Mus\xe9um" is Latin-1 for "Muséum".
	content := testHeader + "\n" +
		"101;F;G;S;1;-21.5;165.2;2019-07-14;7;2019;Mus\xe9um\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	res, err := Load(path, Options{Encoding: "latin1"})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Muséum", res.Records[0].InstitutionCode)
}

func TestLoad_ColumnMapAliases(t *testing.T) {
	dir := t.TempDir()
	mapPath := filepath.Join(dir, "columns.yaml")
	require.NoError(t, os.WriteFile(mapPath, []byte(`
columns:
  gbifID: occurrenceID
  decimalLatitude: lat
  decimalLongitude: lon
`), 0o644))

	path := writeCSV(t,
		"occurrenceID;family;genus;species;individualCount;lat;lon;eventDate;month;year;institutionCode",
		"101;F;G;S;1;-21.5;165.2;2019-07-14;7;2019;IRD",
	)

	res, err := Load(path, Options{ColumnMap: mapPath})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "101", res.Records[0].ID)
	assert.Equal(t, -21.5, res.Records[0].Latitude)
}

func TestLoad_ColumnMapUnknownCanonical(t *testing.T) {
	dir := t.TempDir()
	mapPath := filepath.Join(dir, "columns.yaml")
	require.NoError(t, os.WriteFile(mapPath, []byte("columns:\n  notAColumn: x\n"), 0o644))

	path := writeCSV(t, testHeader)
	_, err := Load(path, Options{ColumnMap: mapPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notAColumn")
}

func TestLoad_UnsupportedEncoding(t *testing.T) {
	path := writeCSV(t, testHeader)
	_, err := Load(path, Options{Encoding: "ebcdic"})
	require.Error(t, err)
}
