package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"mqc.szuro.net/internal/config"
	"mqc.szuro.net/internal/logger"
	"mqc.szuro.net/pkg/mqc"
)

const (
	AZURE_DATA_TABLE     = "data"
	AZURE_FINDINGS_TABLE = "findings"
)

// characters not allowed in PartitionKey and RowKey
var keyReplacer = strings.NewReplacer("/", "_", "\\", "_", "#", "_", "?", "_", "\t", " ", "\n", " ", "\r", " ")

type DataEntity struct {
	aztables.Entity
	DataSourceName  string
	MeasurementName string
	MeasureName     string
	VariableName    string
	ArtifactPath    string
	Value           float64
	DateTime        string
}

type FindingEntity struct {
	aztables.Entity
	DataSourceName  string
	MeasurementName string
	ArtifactPath    string
	Description     string
	State           string
	SubjectType     string
	SubjectPath     string
	DateTime        string
	Data            string
}

type AzureTable struct {
	baseObserver
	d *aztables.Client
	f *aztables.Client
}

// NewAzureTable connects to the table service. conn is either a service URL
// carrying a SAS token or a storage account connection string.
func NewAzureTable(name, conn string, opts config.Options) (client *AzureTable, err error) {
	client = &AzureTable{
		baseObserver: baseObserver{
			name:         name,
			observerType: "azure_table",
		},
	}

	var service *aztables.ServiceClient
	if strings.HasPrefix(conn, "http://") || strings.HasPrefix(conn, "https://") {
		service, err = aztables.NewServiceClientWithNoCredential(conn, nil)
	} else {
		service, err = aztables.NewServiceClientFromConnectionString(conn, nil)
	}
	if err != nil {
		return nil, err
	}

	client.d = service.NewClient(opts.Get("data_table", AZURE_DATA_TABLE))
	client.f = service.NewClient(opts.Get("findings_table", AZURE_FINDINGS_TABLE))
	return
}

func newDataEntity(D mqc.Data) DataEntity {
	return DataEntity{
		Entity: aztables.Entity{
			PartitionKey: keyReplacer.Replace(D.Key()),
			RowKey:       fmt.Sprint(D.DateTime.UnixNano()),
		},
		DataSourceName:  D.DataSourceName,
		MeasurementName: D.MeasurementName,
		MeasureName:     D.MeasureName,
		VariableName:    D.VariableName,
		ArtifactPath:    D.ArtifactPath,
		Value:           D.Value,
		DateTime:        D.DateTime.UTC().Format("2006-01-02T15:04:05.000Z"),
	}
}

func newFindingEntity(F mqc.Finding) (FindingEntity, error) {
	entity := FindingEntity{
		Entity: aztables.Entity{
			PartitionKey: keyReplacer.Replace(F.DataSourceName + "." + F.ArtifactPath),
			RowKey:       keyReplacer.Replace(fmt.Sprintf("%d.%s", F.DateTime.UnixNano(), strings.Join(F.SubjectPath, "."))),
		},
		DataSourceName:  F.DataSourceName,
		MeasurementName: F.MeasurementName,
		ArtifactPath:    F.ArtifactPath,
		Description:     F.Description,
		State:           F.State,
		SubjectType:     F.SubjectType,
		SubjectPath:     strings.Join(F.SubjectPath, "/"),
		DateTime:        F.DateTime.UTC().Format("2006-01-02T15:04:05.000Z"),
	}
	if len(F.Data) > 0 {
		data, err := json.Marshal(F.Data)
		if err != nil {
			return entity, err
		}
		entity.Data = string(data)
	}
	return entity, nil
}

func (az *AzureTable) SaveData(d []mqc.Data) bool {
	return genericSave[mqc.Data](
		d,
		az.localFilter,
		az.dataFunction,
		az.buffer,
	)
}

func (az *AzureTable) dataFunction(d []mqc.Data) (failed []mqc.Data, err error) {
	failed = make([]mqc.Data, 0, len(d))
	for _, D := range d {
		marshalled, merr := json.Marshal(newDataEntity(D))
		if merr != nil {
			logger.Error("Failed to marshall to Entity", slog.String("name", az.name), slog.String("export", mqc.DATA), slog.Any("error", merr))
			continue
		}
		_, aerr := az.d.AddEntity(context.TODO(), marshalled, nil)
		az.sent(mqc.DATA).Inc()
		if aerr != nil {
			logger.Error("Failed to save entity", slog.String("name", az.name), slog.String("export", mqc.DATA), slog.Any("error", aerr))
			az.failed(mqc.DATA).Inc()
			failed = append(failed, D)
			err = aerr
		}
	}
	return failed, err
}

func (az *AzureTable) SaveFindings(f []mqc.Finding) bool {
	return genericSave[mqc.Finding](
		f,
		az.localFilter,
		az.findingFunction,
		az.buffer,
	)
}

func (az *AzureTable) findingFunction(f []mqc.Finding) (failed []mqc.Finding, err error) {
	failed = make([]mqc.Finding, 0, len(f))
	for _, F := range f {
		entity, merr := newFindingEntity(F)
		var marshalled []byte
		if merr == nil {
			marshalled, merr = json.Marshal(entity)
		}
		if merr != nil {
			logger.Error("Failed to marshall to Entity", slog.String("name", az.name), slog.String("export", mqc.FINDING), slog.Any("error", merr))
			continue
		}
		_, aerr := az.f.AddEntity(context.TODO(), marshalled, nil)
		az.sent(mqc.FINDING).Inc()
		if aerr != nil {
			logger.Error("Failed to save entity", slog.String("name", az.name), slog.String("export", mqc.FINDING), slog.Any("error", aerr))
			az.failed(mqc.FINDING).Inc()
			failed = append(failed, F)
			err = aerr
		}
	}
	return failed, err
}
