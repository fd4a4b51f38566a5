package store

import "github.com/redis/go-redis/v9"

// Multi-key invariants (capacity, ownership, reconnect races, reaction
// toggles, counters) run as single scripts so no client observes a half
// applied change. Scripts address player hashes through a key prefix passed
// in ARGV, which assumes one Redis instance rather than a cluster.

// KEYS: exists, info, members, player, disconnected, kicked
// ARGV: username, gender, avatar, now_ms, ttl_seconds
// Returns {status, is_owner}: 1 fresh, 2 reclaimed, -1 full, -2 duplicate,
// -3 room missing, -5 kicked.
var addPlayerScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return {-3, 0} end
if redis.call('SISMEMBER', KEYS[6], ARGV[1]) == 1 then return {-5, 0} end
if redis.call('ZSCORE', KEYS[3], ARGV[1]) then
  if redis.call('HGET', KEYS[4], 'is_connected') == '1' then return {-2, 0} end
  redis.call('DEL', KEYS[5])
  redis.call('HSET', KEYS[4], 'is_connected', '1', 'gender', ARGV[2], 'avatar', ARGV[3])
  local owner = 0
  if redis.call('HGET', KEYS[4], 'is_owner') == '1' then owner = 1 end
  return {2, owner}
end
local n = redis.call('ZCARD', KEYS[3])
if n >= 2 then return {-1, 0} end
local owner = 0
if n == 0 then
  owner = 1
  redis.call('HSET', KEYS[2], 'owner', ARGV[1])
end
redis.call('ZADD', KEYS[3], ARGV[4], ARGV[1])
redis.call('HSET', KEYS[4], 'gender', ARGV[2], 'avatar', ARGV[3], 'is_owner', tostring(owner),
  'is_ready', '0', 'is_connected', '1', 'joined_at', ARGV[4])
redis.call('EXPIRE', KEYS[3], ARGV[5])
redis.call('EXPIRE', KEYS[4], ARGV[5])
return {1, owner}
`)

// KEYS: info, new owner player hash
// ARGV: new owner, player key prefix
// Returns {ok, previous owner}.
var transferOwnerScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 0 then return {0, ''} end
local old = redis.call('HGET', KEYS[1], 'owner')
if not old then old = '' end
if old ~= '' and old ~= ARGV[1] then
  local oldKey = ARGV[2] .. old
  if redis.call('EXISTS', oldKey) == 1 then redis.call('HSET', oldKey, 'is_owner', '0') end
end
redis.call('HSET', KEYS[1], 'owner', ARGV[1])
redis.call('HSET', KEYS[2], 'is_owner', '1')
return {1, old}
`)

// KEYS: members, player, disconnected, typing
// ARGV: username, now_ms, grace_ms
// Returns 1 when the seat was flagged, 0 when the player is gone.
var markDisconnectedScript = redis.NewScript(`
if not redis.call('ZSCORE', KEYS[1], ARGV[1]) then return 0 end
if redis.call('EXISTS', KEYS[2]) == 0 then return 0 end
redis.call('SET', KEYS[3], ARGV[2], 'PX', ARGV[3])
redis.call('HSET', KEYS[2], 'is_connected', '0')
redis.call('DEL', KEYS[4])
return 1
`)

// KEYS: disconnected marker, player hash, kicked
// ARGV: username
// Returns 1 reconnected, 0 no live marker, -1 kicked.
var reconnectScript = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[3], ARGV[1]) == 1 then
  redis.call('DEL', KEYS[1])
  return -1
end
if redis.call('DEL', KEYS[1]) == 0 then return 0 end
if redis.call('EXISTS', KEYS[2]) == 0 then return 0 end
redis.call('HSET', KEYS[2], 'is_connected', '1')
return 1
`)

// KEYS: disconnected marker, player hash, members, info
// ARGV: username, player key prefix
// Returns {removed, new_owner, remaining, connected}.
var finalizeScript = redis.NewScript(`
local removed = 0
local newOwner = ''
if redis.call('EXISTS', KEYS[1]) == 0 and redis.call('EXISTS', KEYS[2]) == 1
  and redis.call('HGET', KEYS[2], 'is_connected') ~= '1' then
  local wasOwner = redis.call('HGET', KEYS[2], 'is_owner') == '1'
  redis.call('DEL', KEYS[2])
  redis.call('ZREM', KEYS[3], ARGV[1])
  removed = 1
  if wasOwner then
    local fallback = ''
    for _, name in ipairs(redis.call('ZRANGE', KEYS[3], 0, -1)) do
      if newOwner == '' and redis.call('HGET', ARGV[2] .. name, 'is_connected') == '1' then newOwner = name end
      if fallback == '' then fallback = name end
    end
    if newOwner == '' then newOwner = fallback end
    if newOwner ~= '' then
      redis.call('HSET', KEYS[4], 'owner', newOwner)
      redis.call('HSET', ARGV[2] .. newOwner, 'is_owner', '1')
    end
  end
end
local members = redis.call('ZRANGE', KEYS[3], 0, -1)
local connected = 0
for _, name in ipairs(members) do
  if redis.call('HGET', ARGV[2] .. name, 'is_connected') == '1' then connected = connected + 1 end
end
return {removed, newOwner, #members, connected}
`)

// KEYS: reactions hash
// ARGV: username, emoji, ttl_seconds
// Returns {action, previous emoji}.
var toggleReactionScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if not cur then
  redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
  redis.call('EXPIRE', KEYS[1], ARGV[3])
  return {'added', ''}
end
if cur == ARGV[2] then
  redis.call('HDEL', KEYS[1], ARGV[1])
  return {'removed', cur}
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('EXPIRE', KEYS[1], ARGV[3])
return {'replaced', cur}
`)

// KEYS: counter
// ARGV: limit, window_seconds
// Returns 1 when the event is allowed.
var fixedWindowScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if redis.call('TTL', KEYS[1]) < 0 then redis.call('EXPIRE', KEYS[1], ARGV[2]) end
if n > tonumber(ARGV[1]) then return 0 end
return 1
`)

// KEYS: room group keys (members third)
// ARGV: ttl_seconds, player key prefix
var refreshScript = redis.NewScript(`
for i = 1, #KEYS do redis.call('EXPIRE', KEYS[i], ARGV[1]) end
local members = redis.call('ZRANGE', KEYS[3], 0, -1)
for _, name in ipairs(members) do redis.call('EXPIRE', ARGV[2] .. name, ARGV[1]) end
return #members
`)
