package conf

import "wheel/pkg/xgo"

// Bootstrap 配置根节点，对应 configs/config.yaml
type Bootstrap struct {
	Server  *Server  `json:"server"`
	Data    *Data    `json:"data"`
	Log     *Log     `json:"log"`
	Notify  *Notify  `json:"notify"`
	Wheel   *Wheel   `json:"wheel"`
	Lottery *Lottery `json:"lottery"`
}

type Server struct {
	Http *Server_HTTP `json:"http"`
	Grpc *Server_GRPC `json:"grpc"`
}

type Server_HTTP struct {
	Network string       `json:"network"`
	Addr    string       `json:"addr"`
	Timeout xgo.Duration `json:"timeout"`
	// 允许的跨域来源，空表示 *
	CorsOrigins []string `json:"cors_origins"`
}

type Server_GRPC struct {
	Network string       `json:"network"`
	Addr    string       `json:"addr"`
	Timeout xgo.Duration `json:"timeout"`
}

type Data struct {
	Redis    *Data_Redis    `json:"redis"`
	Database *Data_Database `json:"database"`
	S3       *Data_S3       `json:"s3"`
}

type Data_Redis struct {
	Addr         []string     `json:"addr"`
	Password     string       `json:"password"`
	Db           int32        `json:"db"`
	ReadTimeout  xgo.Duration `json:"read_timeout"`
	WriteTimeout xgo.Duration `json:"write_timeout"`
	// 键前缀，默认 "wheel"
	Prefix string `json:"prefix"`
}

type Data_Database struct {
	Driver       string `json:"driver"`
	Source       string `json:"source"`
	MaxIdleConns int32  `json:"max_idle_conns"`
	MaxOpenConns int32  `json:"max_open_conns"`
}

type Data_S3 struct {
	Region          string `json:"region"`
	Bucket          string `json:"bucket"`
	Endpoint        string `json:"endpoint"`
	AccessKeyId     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

type Log struct {
	Mode  string `json:"mode"`
	Level string `json:"level"`
	App   string `json:"app"`
	Dir   string `json:"dir"`
	File  bool   `json:"file"`
	Json  bool   `json:"json"`
	// 切割参数，0 取默认
	MaxSize    int32 `json:"max_size"`
	MaxBackups int32 `json:"max_backups"`
	MaxAge     int32 `json:"max_age"`
}

type Notify struct {
	Enabled       bool   `json:"enabled"`
	WebhookUrl    string `json:"webhook_url"`
	SigningSecret string `json:"signing_secret"`
	Prefix        string `json:"prefix"`
}

func (n *Notify) GetWebhookUrl() string {
	if n == nil {
		return ""
	}
	return n.WebhookUrl
}

func (n *Notify) GetSigningSecret() string {
	if n == nil {
		return ""
	}
	return n.SigningSecret
}

func (n *Notify) GetPrefix() string {
	if n == nil {
		return ""
	}
	return n.Prefix
}

// Wheel 转盘外观、动画、结果来源与录制
type Wheel struct {
	Width    int32            `json:"width"`
	Height   int32            `json:"height"`
	FontPath string           `json:"font_path"`
	FontSize float64          `json:"font_size"`
	Segments []*Wheel_Segment `json:"segments"`
	Spin     *Wheel_Spin      `json:"spin"`
	Outcome  *Wheel_Outcome   `json:"outcome"`
	Record   *Wheel_Record    `json:"record"`
}

type Wheel_Segment struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Prize bool   `json:"prize"`
}

type Wheel_Spin struct {
	Duration      xgo.Duration `json:"duration"`
	ExtraSpins    int32        `json:"extra_spins"`
	FrameInterval xgo.Duration `json:"frame_interval"`
}

// Wheel_Outcome 为空 Url 时使用进程内抽奖服务
type Wheel_Outcome struct {
	Url     string       `json:"url"`
	Timeout xgo.Duration `json:"timeout"`
}

type Wheel_Record struct {
	Enabled bool `json:"enabled"`
	// 每隔多少帧采样一帧
	Every   int32  `json:"every"`
	Workers int32  `json:"workers"`
	Bucket  string `json:"bucket"`
}

// Lottery 奖池：奖品按顺序抽出，抽完后随机返回情话
type Lottery struct {
	Prizes []*Lottery_Prize `json:"prizes"`
	Poems  []string         `json:"poems"`
}

type Lottery_Prize struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}
