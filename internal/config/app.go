package config

type AppConfig struct {
	Server ServerConfig
	Redis  RedisConfig
	Room   RoomConfig
	Log    LogConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	redisCfg, err := LoadRedis()
	if err != nil {
		return AppConfig{}, err
	}
	roomCfg, err := LoadRoom()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Redis:  redisCfg,
		Room:   roomCfg,
		Log:    logCfg,
	}, nil
}
