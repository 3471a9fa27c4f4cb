package wire

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "booking.v1.BookingService"

// FullMethod returns the gRPC path for a method of the booking service.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

type BookingServiceServer interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*AuthResponse, error)
	Logout(context.Context, *Empty) (*Empty, error)

	GetProfile(context.Context, *Empty) (*User, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*User, error)
	ListDoctors(context.Context, *Empty) (*ListDoctorsResponse, error)
	CreateDoctor(context.Context, *CreateDoctorRequest) (*User, error)
	DeleteDoctor(context.Context, *IdRequest) (*Empty, error)

	BookAppointment(context.Context, *BookAppointmentRequest) (*AppointmentResponse, error)
	CancelAppointment(context.Context, *IdRequest) (*Empty, error)
	ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error)

	SetAvailability(context.Context, *SetAvailabilityRequest) (*AvailabilityResponse, error)
	ListAvailability(context.Context, *ListAvailabilityRequest) (*ListAvailabilityResponse, error)
	DeleteAvailability(context.Context, *IdRequest) (*Empty, error)
}

// UnimplementedBookingServiceServer answers every RPC with
// codes.Unimplemented. Embed it to satisfy BookingServiceServer partially.
type UnimplementedBookingServiceServer struct{}

func unimplemented(name string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", name)
}

func (UnimplementedBookingServiceServer) Register(context.Context, *RegisterRequest) (*AuthResponse, error) {
	return nil, unimplemented("Register")
}
func (UnimplementedBookingServiceServer) Login(context.Context, *LoginRequest) (*AuthResponse, error) {
	return nil, unimplemented("Login")
}
func (UnimplementedBookingServiceServer) RefreshToken(context.Context, *RefreshTokenRequest) (*AuthResponse, error) {
	return nil, unimplemented("RefreshToken")
}
func (UnimplementedBookingServiceServer) Logout(context.Context, *Empty) (*Empty, error) {
	return nil, unimplemented("Logout")
}
func (UnimplementedBookingServiceServer) GetProfile(context.Context, *Empty) (*User, error) {
	return nil, unimplemented("GetProfile")
}
func (UnimplementedBookingServiceServer) UpdateProfile(context.Context, *UpdateProfileRequest) (*User, error) {
	return nil, unimplemented("UpdateProfile")
}
func (UnimplementedBookingServiceServer) ListDoctors(context.Context, *Empty) (*ListDoctorsResponse, error) {
	return nil, unimplemented("ListDoctors")
}
func (UnimplementedBookingServiceServer) CreateDoctor(context.Context, *CreateDoctorRequest) (*User, error) {
	return nil, unimplemented("CreateDoctor")
}
func (UnimplementedBookingServiceServer) DeleteDoctor(context.Context, *IdRequest) (*Empty, error) {
	return nil, unimplemented("DeleteDoctor")
}
func (UnimplementedBookingServiceServer) BookAppointment(context.Context, *BookAppointmentRequest) (*AppointmentResponse, error) {
	return nil, unimplemented("BookAppointment")
}
func (UnimplementedBookingServiceServer) CancelAppointment(context.Context, *IdRequest) (*Empty, error) {
	return nil, unimplemented("CancelAppointment")
}
func (UnimplementedBookingServiceServer) ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error) {
	return nil, unimplemented("ListAppointments")
}
func (UnimplementedBookingServiceServer) SetAvailability(context.Context, *SetAvailabilityRequest) (*AvailabilityResponse, error) {
	return nil, unimplemented("SetAvailability")
}
func (UnimplementedBookingServiceServer) ListAvailability(context.Context, *ListAvailabilityRequest) (*ListAvailabilityResponse, error) {
	return nil, unimplemented("ListAvailability")
}
func (UnimplementedBookingServiceServer) DeleteAvailability(context.Context, *IdRequest) (*Empty, error) {
	return nil, unimplemented("DeleteAvailability")
}

// unary builds the method descriptor for one RPC from a method expression
// such as BookingServiceServer.Login.
func unary[Req any, PReq interface {
	*Req
	Message
}, Resp any](name string, call func(BookingServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(PReq(in)); err != nil {
				return nil, err
			}
			s := srv.(BookingServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary[RegisterRequest]("Register", BookingServiceServer.Register),
		unary[LoginRequest]("Login", BookingServiceServer.Login),
		unary[RefreshTokenRequest]("RefreshToken", BookingServiceServer.RefreshToken),
		unary[Empty]("Logout", BookingServiceServer.Logout),
		unary[Empty]("GetProfile", BookingServiceServer.GetProfile),
		unary[UpdateProfileRequest]("UpdateProfile", BookingServiceServer.UpdateProfile),
		unary[Empty]("ListDoctors", BookingServiceServer.ListDoctors),
		unary[CreateDoctorRequest]("CreateDoctor", BookingServiceServer.CreateDoctor),
		unary[IdRequest]("DeleteDoctor", BookingServiceServer.DeleteDoctor),
		unary[BookAppointmentRequest]("BookAppointment", BookingServiceServer.BookAppointment),
		unary[IdRequest]("CancelAppointment", BookingServiceServer.CancelAppointment),
		unary[ListAppointmentsRequest]("ListAppointments", BookingServiceServer.ListAppointments),
		unary[SetAvailabilityRequest]("SetAvailability", BookingServiceServer.SetAvailability),
		unary[ListAvailabilityRequest]("ListAvailability", BookingServiceServer.ListAvailability),
		unary[IdRequest]("DeleteAvailability", BookingServiceServer.DeleteAvailability),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "booking/v1/booking.proto",
}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client is a typed client for the booking service. Calls always use Codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any, PResp interface {
	*Resp
	Message
}](ctx context.Context, cc grpc.ClientConnInterface, name string, in Message, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	if err := cc.Invoke(ctx, FullMethod(name), in, PResp(out), opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, "Register", in, opts)
}

func (c *Client) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, "Login", in, opts)
}

func (c *Client) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, "RefreshToken", in, opts)
}

func (c *Client) Logout(ctx context.Context, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "Logout", &Empty{}, opts)
}

func (c *Client) GetProfile(ctx context.Context, opts ...grpc.CallOption) (*User, error) {
	return invoke[User](ctx, c.cc, "GetProfile", &Empty{}, opts)
}

func (c *Client) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*User, error) {
	return invoke[User](ctx, c.cc, "UpdateProfile", in, opts)
}

func (c *Client) ListDoctors(ctx context.Context, opts ...grpc.CallOption) (*ListDoctorsResponse, error) {
	return invoke[ListDoctorsResponse](ctx, c.cc, "ListDoctors", &Empty{}, opts)
}

func (c *Client) CreateDoctor(ctx context.Context, in *CreateDoctorRequest, opts ...grpc.CallOption) (*User, error) {
	return invoke[User](ctx, c.cc, "CreateDoctor", in, opts)
}

func (c *Client) DeleteDoctor(ctx context.Context, in *IdRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "DeleteDoctor", in, opts)
}

func (c *Client) BookAppointment(ctx context.Context, in *BookAppointmentRequest, opts ...grpc.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "BookAppointment", in, opts)
}

func (c *Client) CancelAppointment(ctx context.Context, in *IdRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "CancelAppointment", in, opts)
}

func (c *Client) ListAppointments(ctx context.Context, in *ListAppointmentsRequest, opts ...grpc.CallOption) (*ListAppointmentsResponse, error) {
	return invoke[ListAppointmentsResponse](ctx, c.cc, "ListAppointments", in, opts)
}

func (c *Client) SetAvailability(ctx context.Context, in *SetAvailabilityRequest, opts ...grpc.CallOption) (*AvailabilityResponse, error) {
	return invoke[AvailabilityResponse](ctx, c.cc, "SetAvailability", in, opts)
}

func (c *Client) ListAvailability(ctx context.Context, in *ListAvailabilityRequest, opts ...grpc.CallOption) (*ListAvailabilityResponse, error) {
	return invoke[ListAvailabilityResponse](ctx, c.cc, "ListAvailability", in, opts)
}

func (c *Client) DeleteAvailability(ctx context.Context, in *IdRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "DeleteAvailability", in, opts)
}
