package observer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"mqc.szuro.net/pkg/mqc"
)

const (
	STDOUT = "stdout"
	STDERR = "stderr"
)

type Print struct {
	baseObserver
	out io.Writer
}

func NewPrint(name, out string) (p *Print) {
	p = &Print{
		baseObserver: baseObserver{
			name:         name,
			observerType: "print",
		},
	}
	if out == STDERR {
		p.out = os.Stderr
	} else {
		p.out = os.Stdout
	}

	return
}

func (p *Print) SaveData(d []mqc.Data) bool {
	return genericSave[mqc.Data](
		d,
		p.localFilter,
		p.dataFunction,
		p.buffer,
	)
}

func (p *Print) dataFunction(d []mqc.Data) (failed []mqc.Data, err error) {
	failed = make([]mqc.Data, 0, len(d))
	for _, D := range d {
		msg := fmt.Sprintf(
			"Source: %s; Measurement: %s; Measure: %s.%s; Artifact: %s; Time: %s; Value: %v",
			D.DataSourceName, D.MeasurementName, D.MeasureName, D.VariableName, D.ArtifactPath,
			D.DateTime.Format(time.RFC3339), D.Value,
		)
		_, werr := fmt.Fprintln(p.out, msg)
		p.sent(mqc.DATA).Inc()
		if werr != nil {
			p.failed(mqc.DATA).Inc()
			failed = append(failed, D)
			err = werr
		}
	}
	return failed, err
}

func (p *Print) SaveFindings(f []mqc.Finding) bool {
	return genericSave[mqc.Finding](
		f,
		p.localFilter,
		p.findingFunction,
		p.buffer,
	)
}

func (p *Print) findingFunction(f []mqc.Finding) (failed []mqc.Finding, err error) {
	failed = make([]mqc.Finding, 0, len(f))
	for _, F := range f {
		msg := fmt.Sprintf(
			"Source: %s; Subject: %s %s; Artifact: %s; Time: %s; State: %s; Data: %d; Description: %s",
			F.DataSourceName, F.SubjectType, strings.Join(F.SubjectPath, "/"), F.ArtifactPath,
			F.DateTime.Format(time.RFC3339), F.State, len(F.Data), F.Description,
		)
		_, werr := fmt.Fprintln(p.out, msg)
		p.sent(mqc.FINDING).Inc()
		if werr != nil {
			p.failed(mqc.FINDING).Inc()
			failed = append(failed, F)
			err = werr
		}
	}
	return failed, err
}
