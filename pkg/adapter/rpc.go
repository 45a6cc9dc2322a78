package adapter

import (
	"context"
	"log/slog"
	"net/rpc"
	"time"

	"github.com/hashicorp/go-plugin"
	"mqc.szuro.net/pkg/mqc"
)

// Handshake is the shared configuration between the host and adapter plugins.
// This must match exactly between the host and all plugins.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "MQC_PLUGIN",
	MagicCookieValue: "mqc_adapter",
}

// Names the adapters are dispensed under.
const (
	CONNECTOR   = "connector"
	FILE_READER = "file_reader"
)

// PluginMap lists every adapter kind known to the host.
func PluginMap() map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		CONNECTOR:   &ConnectorPlugin{},
		FILE_READER: &FileReaderPlugin{},
	}
}

// ConnectorPlugin is the implementation of the plugin.Plugin interface
// for connectors served over net/rpc.
type ConnectorPlugin struct {
	// Impl is the concrete implementation of the connector
	Impl Connector
}

func (p *ConnectorPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &ConnectorRPCServer{Impl: p.Impl}, nil
}

func (p *ConnectorPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &ConnectorRPC{Base: NewBase(CONNECTOR), client: c}, nil
}

// FileReaderPlugin is the implementation of the plugin.Plugin interface
// for file readers served over net/rpc.
type FileReaderPlugin struct {
	// Impl is the concrete implementation of the file reader
	Impl FileReader
}

func (p *FileReaderPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &FileReaderRPCServer{Impl: p.Impl}, nil
}

func (p *FileReaderPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &FileReaderRPC{Base: NewBase(FILE_READER), client: c}, nil
}

type ConnectorArgs struct {
	Context  ConnectorContext
	Preview  string
	Deadline time.Time
}

type ConfigureFormArgs struct {
	Configuration  []byte
	ModifiedFields []string
	Deadline       time.Time
}

type FileArgs struct {
	Context  FileContext
	Deadline time.Time
}

// Adapter errors travel in the replies, net/rpc would flatten them to strings.

type ReadReply struct {
	Result    *mqc.ReadResult
	HasResult bool
	Err       *RemoteError
}

type PreviewReply struct {
	Previews []mqc.FormPreview
	Total    int
	Err      *RemoteError
}

// call waits for the reply of method or for ctx, whichever comes first.
func call(ctx context.Context, client *rpc.Client, method string, args, reply any) error {
	c := client.Go(method, args, reply, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.Done:
		return c.Error
	}
}

func deadline(ctx context.Context) time.Time {
	d, _ := ctx.Deadline()
	return d
}

// serverContext restores the deadline of the calling side.
func serverContext(d time.Time) (context.Context, context.CancelFunc) {
	if d.IsZero() {
		return context.WithCancel(context.Background())
	}
	return context.WithDeadline(context.Background(), d)
}

func toReply(result *mqc.ReadResult, reply *ReadReply) {
	reply.Result = result
	reply.HasResult = result != nil
}

func fromReply(reply ReadReply) *mqc.ReadResult {
	if !reply.HasResult {
		return nil
	}
	if reply.Result == nil {
		return mqc.NewReadResult()
	}
	return reply.Result
}

// ConnectorRPC is the host side of a connector plugin.
type ConnectorRPC struct {
	Base
	client *rpc.Client
}

func (c *ConnectorRPC) Info() Info {
	var info Info
	if err := c.client.Call("Plugin.Info", new(interface{}), &info); err != nil {
		return Info{}
	}
	return info
}

func (c *ConnectorRPC) CheckAvailable(ctx context.Context, cc ConnectorContext) bool {
	var ok bool
	if err := call(ctx, c.client, "Plugin.CheckAvailable", ConnectorArgs{Context: cc, Deadline: deadline(ctx)}, &ok); err != nil {
		return false
	}
	return ok
}

func (c *ConnectorRPC) CheckModified(ctx context.Context, cc ConnectorContext) bool {
	var ok bool
	if err := call(ctx, c.client, "Plugin.CheckModified", ConnectorArgs{Context: cc, Deadline: deadline(ctx)}, &ok); err != nil {
		return false
	}
	return ok
}

func (c *ConnectorRPC) Read(ctx context.Context, cc ConnectorContext) (*mqc.ReadResult, error) {
	var reply ReadReply
	if err := call(ctx, c.client, "Plugin.Read", ConnectorArgs{Context: cc, Deadline: deadline(ctx)}, &reply); err != nil {
		return nil, err
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return fromReply(reply), nil
}

func (c *ConnectorRPC) ConfigureForm(ctx context.Context, configuration []byte, modifiedFields []string) []mqc.FormError {
	var errs []mqc.FormError
	args := ConfigureFormArgs{Configuration: configuration, ModifiedFields: modifiedFields, Deadline: deadline(ctx)}
	if err := call(ctx, c.client, "Plugin.ConfigureForm", args, &errs); err != nil {
		return []mqc.FormError{{Message: "Adapter unavailable", Description: err.Error()}}
	}
	return errs
}

func (c *ConnectorRPC) GetPreview(ctx context.Context, cc ConnectorContext, preview string) ([]mqc.FormPreview, int, error) {
	var reply PreviewReply
	if err := call(ctx, c.client, "Plugin.GetPreview", ConnectorArgs{Context: cc, Preview: preview, Deadline: deadline(ctx)}, &reply); err != nil {
		return nil, 0, err
	}
	if reply.Err != nil {
		return nil, 0, reply.Err
	}
	return reply.Previews, reply.Total, nil
}

// ConnectorRPCServer is the plugin side of a connector plugin.
type ConnectorRPCServer struct {
	Impl Connector
}

func (s *ConnectorRPCServer) Info(args interface{}, reply *Info) error {
	*reply = s.Impl.Info()
	return nil
}

func (s *ConnectorRPCServer) CheckAvailable(args ConnectorArgs, reply *bool) error {
	ctx, cancel := serverContext(args.Deadline)
	defer cancel()
	*reply = s.Impl.CheckAvailable(ctx, args.Context)
	return nil
}

func (s *ConnectorRPCServer) CheckModified(args ConnectorArgs, reply *bool) error {
	ctx, cancel := serverContext(args.Deadline)
	defer cancel()
	*reply = s.Impl.CheckModified(ctx, args.Context)
	return nil
}

func (s *ConnectorRPCServer) Read(args ConnectorArgs, reply *ReadReply) error {
	ctx, cancel := serverContext(args.Deadline)
	defer cancel()
	result, err := s.Impl.Read(ctx, args.Context)
	if err != nil {
		reply.Err = newRemoteError(err)
		return nil
	}
	toReply(result, reply)
	return nil
}

func (s *ConnectorRPCServer) ConfigureForm(args ConfigureFormArgs, reply *[]mqc.FormError) error {
	ctx, cancel := serverContext(args.Deadline)
	defer cancel()
	*reply = s.Impl.ConfigureForm(ctx, args.Configuration, args.ModifiedFields)
	return nil
}

func (s *ConnectorRPCServer) GetPreview(args ConnectorArgs, reply *PreviewReply) error {
	ctx, cancel := serverContext(args.Deadline)
	defer cancel()
	previews, total, err := s.Impl.GetPreview(ctx, args.Context, args.Preview)
	if err != nil {
		reply.Err = newRemoteError(err)
		return nil
	}
	reply.Previews = previews
	reply.Total = total
	return nil
}

// FileReaderRPC is the host side of a file reader plugin.
type FileReaderRPC struct {
	Base
	client *rpc.Client
}

func (c *FileReaderRPC) failed(method string, err error) {
	c.Log().Error("Plugin call failed", slog.String("method", method), slog.Any("error", err))
}

func (c *FileReaderRPC) Info() Info {
	var info Info
	if err := c.client.Call("Plugin.Info", new(interface{}), &info); err != nil {
		c.failed("Info", err)
		return Info{}
	}
	return info
}

// Priority returns 0 when the plugin cannot be reached.
func (c *FileReaderRPC) Priority() int {
	var p int
	if err := c.client.Call("Plugin.Priority", new(interface{}), &p); err != nil {
		c.failed("Priority", err)
		return 0
	}
	return p
}

// FileExtensions returns no extensions when the plugin cannot be reached,
// so the reader accepts no file.
func (c *FileReaderRPC) FileExtensions() []string {
	var exts []string
	if err := c.client.Call("Plugin.FileExtensions", new(interface{}), &exts); err != nil {
		c.failed("FileExtensions", err)
		return nil
	}
	return exts
}

func (c *FileReaderRPC) DataSource() string {
	var ds string
	if err := c.client.Call("Plugin.DataSource", new(interface{}), &ds); err != nil {
		c.failed("DataSource", err)
		return ""
	}
	return ds
}

func (c *FileReaderRPC) IsValid(fc FileContext) bool {
	var ok bool
	if err := c.client.Call("Plugin.IsValid", FileArgs{Context: fc}, &ok); err != nil {
		c.failed("IsValid", err)
		return false
	}
	return ok
}

func (c *FileReaderRPC) Read(ctx context.Context, fc FileContext) (*mqc.ReadResult, error) {
	var reply ReadReply
	if err := call(ctx, c.client, "Plugin.Read", FileArgs{Context: fc, Deadline: deadline(ctx)}, &reply); err != nil {
		return nil, err
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return fromReply(reply), nil
}

// FileReaderRPCServer is the plugin side of a file reader plugin.
type FileReaderRPCServer struct {
	Impl FileReader
}

func (s *FileReaderRPCServer) Info(args interface{}, reply *Info) error {
	*reply = s.Impl.Info()
	return nil
}

func (s *FileReaderRPCServer) Priority(args interface{}, reply *int) error {
	*reply = s.Impl.Priority()
	return nil
}

func (s *FileReaderRPCServer) FileExtensions(args interface{}, reply *[]string) error {
	*reply = s.Impl.FileExtensions()
	return nil
}

func (s *FileReaderRPCServer) DataSource(args interface{}, reply *string) error {
	*reply = s.Impl.DataSource()
	return nil
}

func (s *FileReaderRPCServer) IsValid(args FileArgs, reply *bool) error {
	*reply = s.Impl.IsValid(args.Context)
	return nil
}

func (s *FileReaderRPCServer) Read(args FileArgs, reply *ReadReply) error {
	ctx, cancel := serverContext(args.Deadline)
	defer cancel()
	result, err := s.Impl.Read(ctx, args.Context)
	if err != nil {
		reply.Err = newRemoteError(err)
		return nil
	}
	toReply(result, reply)
	return nil
}
